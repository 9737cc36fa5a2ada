package manifest

import (
	"math"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Render writes the accepted descriptor set as HCL `descriptor` blocks, one
// per descriptor in the given order.
func Render(descs []*schema.NodeDescriptor) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	for i, d := range descs {
		if i > 0 {
			root.AppendNewline()
		}
		body := root.AppendNewBlock("descriptor", []string{d.ID}).Body()
		body.SetAttributeValue("member", cty.StringVal(d.MemberID))
		body.SetAttributeValue("menu_path", cty.StringVal(d.MenuPath))
		body.SetAttributeValue("kind", cty.StringVal(kindName(d)))
		body.SetAttributeValue("flow", cty.BoolVal(d.IsFlowNode))
		if d.Metadata.Category != "" {
			body.SetAttributeValue("category", cty.StringVal(d.Metadata.Category))
		}
		body.SetAttributeValue("priority", cty.NumberIntVal(int64(d.Metadata.Priority)))
		if !d.Metadata.Searchable {
			body.SetAttributeValue("searchable", cty.False)
		}
		if d.Metadata.Networked {
			body.SetAttributeValue("networked", cty.True)
		}

		for _, tp := range d.TypeParams {
			cb := body.AppendNewBlock("constraint", []string{tp.Name}).Body()
			elems := make([]hclwrite.Tokens, len(tp.Allowed))
			for i, t := range tp.Allowed {
				elems[i] = typeTokens(t)
			}
			cb.SetAttributeRaw("types", hclwrite.TokensForTuple(elems))
		}
		for _, p := range d.Inputs {
			pb := body.AppendNewBlock("input", []string{p.Name}).Body()
			renderPort(pb, p)
			if p.HasDefault() {
				pb.SetAttributeValue("default", p.Default)
			}
			if p.Hidden {
				pb.SetAttributeValue("hidden", cty.True)
			}
			if p.Range != nil {
				if !math.IsInf(p.Range.Min, 0) {
					pb.SetAttributeValue("min", cty.NumberFloatVal(p.Range.Min))
				}
				if !math.IsInf(p.Range.Max, 0) {
					pb.SetAttributeValue("max", cty.NumberFloatVal(p.Range.Max))
				}
			}
		}
		for _, p := range d.Outputs {
			renderPort(body.AppendNewBlock("output", []string{p.Name}).Body(), p)
		}
		for _, fo := range d.FlowOutputs {
			fb := body.AppendNewBlock("flow_output", []string{fo.Name}).Body()
			if fo.Tooltip != "" {
				fb.SetAttributeValue("tooltip", cty.StringVal(fo.Tooltip))
			}
		}
	}
	return hclwrite.Format(f.Bytes())
}

func renderPort(body *hclwrite.Body, p schema.PortDescriptor) {
	body.SetAttributeRaw("type", typeTokens(p.ValueType))
	if p.DisplayName != p.Name {
		body.SetAttributeValue("display_name", cty.StringVal(p.DisplayName))
	}
	if p.Tooltip != "" {
		body.SetAttributeValue("tooltip", cty.StringVal(p.Tooltip))
	}
}

func typeTokens(t valuetype.Type) hclwrite.Tokens {
	if elem, ok := t.Elem(); ok {
		return hclwrite.TokensForFunctionCall("list", typeTokens(elem))
	}
	return hclwrite.TokensForIdentifier(t.Name())
}

func kindName(d *schema.NodeDescriptor) string {
	if d.Accessor != schema.AccessorNone {
		return d.Kind.String() + "_" + d.Accessor.String()
	}
	return d.Kind.String()
}
