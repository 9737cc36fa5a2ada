package schema

import (
	"context"

	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Accessor descriptor suffixes.
const (
	GetSuffix = "#get"
	SetSuffix = "#set"
)

// defaultResultName is the display name of an unmarked primary return port.
const defaultResultName = "Result"

func (b *Builder) buildMethod(ctx context.Context, c *collector, m *discovery.Member) *NodeDescriptor {
	src := m.Source
	node := m.Node

	checkAccess(c, src)
	path := checkMenuPath(c, node.MenuPath)

	declared := make([]valuetype.Type, 0, len(src.Params)+1)
	for _, p := range src.Params {
		b.checkPortType(c, p.Name, p.Type)
		declared = append(declared, p.Type)
	}
	if !src.Return.IsVoid() {
		b.checkPortType(c, ReturnPortName, src.Return)
		declared = append(declared, src.Return)
	}
	params := b.resolveTypeParams(c, m, declared)

	var inputs, outputs []PortDescriptor
	if !src.Return.IsVoid() {
		ret := PortDescriptor{
			Name:        ReturnPortName,
			DisplayName: defaultResultName,
			ValueType:   src.Return,
			Default:     cty.NilVal,
			Constraint:  constraintFor(params, src.Return),
		}
		applyOutputMarker(&ret, m.Outputs[marker.ReturnPort])
		outputs = append(outputs, ret)
	}
	for _, p := range src.Params {
		if !p.Out {
			mk, ok := m.Inputs[p.Name]
			inputs = append(inputs, inputPort(c, p, mk, ok, params))
			continue
		}
		out := PortDescriptor{
			Name:        p.Name,
			DisplayName: p.Name,
			ValueType:   p.Type,
			Default:     cty.NilVal,
			Constraint:  constraintFor(params, p.Type),
		}
		applyOutputMarker(&out, m.Outputs[p.Name])
		outputs = append(outputs, out)
	}
	checkUniqueNames(c, "input", inputs)
	checkUniqueNames(c, "output", outputs)

	isFlow := node.IsFlowNode()
	flows := b.flowOutputs(c, isFlow, m.FlowOutputs)

	checkSignature(c, "implementation", src.Fn, portTypes(inputs), portTypes(outputs))

	if c.failed() {
		return nil
	}

	md := metadataFor(m, node.Icon, node.Color, node.Tooltip)
	if node.Category != "" {
		md.Category = node.Category
	}
	md.Searchable = node.IsSearchable()
	md.SearchKeywords = append([]string(nil), node.SearchKeywords...)

	d := &NodeDescriptor{
		ID:          src.ID(),
		MemberID:    src.ID(),
		MenuPath:    path.String(),
		Path:        path,
		DisplayName: path.Leaf(),
		Kind:        registry.KindMethod,
		IsFlowNode:  isFlow,
		HasReturn:   !src.Return.IsVoid(),
		Inputs:      inputs,
		Outputs:     outputs,
		FlowOutputs: flows,
		TypeParams:  params,
		Metadata:    md,
	}
	ctxlog.FromContext(ctx).Debug("Method node built.",
		"inputs", len(inputs), "outputs", len(outputs), "flow_outputs", len(flows), "generic", d.IsGeneric())
	return d
}

func applyOutputMarker(p *PortDescriptor, mk marker.Output) {
	if mk.DisplayName != "" {
		p.DisplayName = mk.DisplayName
	}
	p.Tooltip = mk.Tooltip
}

// buildProperty expands a property into a non-flow get node and, when the
// property is writable, a flow set node.
func (b *Builder) buildProperty(ctx context.Context, c *collector, m *discovery.Member) []*NodeDescriptor {
	src := m.Source
	prop := m.Property

	checkAccess(c, src)
	path := checkMenuPath(c, prop.MenuPath)
	if src.Type.IsVar() {
		c.add(bridgeerr.RuleUnsupportedType, PropertyPortName, "property type cannot be a type parameter")
	} else {
		b.checkPortType(c, PropertyPortName, src.Type)
	}

	checkSignature(c, "getter", src.Get, nil, []valuetype.Type{src.Type})
	writable := !prop.ReadOnly && src.Set != nil
	if writable {
		checkSignature(c, "setter", src.Set, []valuetype.Type{src.Type}, nil)
	}

	if c.failed() {
		return nil
	}

	port := PortDescriptor{
		Name:        PropertyPortName,
		DisplayName: PropertyPortName,
		ValueType:   src.Type,
		Default:     cty.NilVal,
	}
	leaf := path.Leaf()

	getPath := path.WithLeaf("Get " + leaf)
	get := &NodeDescriptor{
		ID:          src.ID() + GetSuffix,
		MemberID:    src.ID(),
		MenuPath:    getPath.String(),
		Path:        getPath,
		DisplayName: leaf,
		Kind:        registry.KindProperty,
		Accessor:    AccessorGet,
		IsFlowNode:  false,
		HasReturn:   true,
		Outputs:     []PortDescriptor{port},
		Metadata:    metadataFor(m, prop.Icon, "", prop.Tooltip),
	}
	descs := []*NodeDescriptor{get}

	if writable {
		setPath := path.WithLeaf("Set " + leaf)
		descs = append(descs, &NodeDescriptor{
			ID:          src.ID() + SetSuffix,
			MemberID:    src.ID(),
			MenuPath:    setPath.String(),
			Path:        setPath,
			DisplayName: "Set " + leaf,
			Kind:        registry.KindProperty,
			Accessor:    AccessorSet,
			IsFlowNode:  true,
			Inputs:      []PortDescriptor{port},
			Metadata:    metadataFor(m, prop.Icon, "", prop.Tooltip),
		})
	}

	ctxlog.FromContext(ctx).Debug("Property nodes built.", "writable", writable)
	return descs
}

// buildEvent turns an event into an entry flow node whose outputs carry the
// payload.
func (b *Builder) buildEvent(ctx context.Context, c *collector, m *discovery.Member) *NodeDescriptor {
	src := m.Source
	ev := m.Event

	checkAccess(c, src)
	path := checkMenuPath(c, ev.MenuPath)

	declared := make([]valuetype.Type, 0, len(src.Params))
	for _, p := range src.Params {
		b.checkPortType(c, p.Name, p.Type)
		declared = append(declared, p.Type)
	}
	// Events take no constraint markers, so every type variable is reported.
	b.resolveTypeParams(c, m, declared)

	outputs := make([]PortDescriptor, 0, len(src.Params))
	for _, p := range src.Params {
		out := PortDescriptor{
			Name:        p.Name,
			DisplayName: p.Name,
			ValueType:   p.Type,
			Default:     cty.NilVal,
		}
		applyOutputMarker(&out, m.Outputs[p.Name])
		outputs = append(outputs, out)
	}
	checkUniqueNames(c, "output", outputs)

	if c.failed() {
		return nil
	}

	md := metadataFor(m, ev.Icon, "", ev.Tooltip)
	md.Networked = ev.Networked

	ctxlog.FromContext(ctx).Debug("Event node built.", "payload", len(outputs), "networked", ev.Networked)
	return &NodeDescriptor{
		ID:          src.ID(),
		MemberID:    src.ID(),
		MenuPath:    path.String(),
		Path:        path,
		DisplayName: path.Leaf(),
		Kind:        registry.KindEvent,
		IsFlowNode:  true,
		Outputs:     outputs,
		Metadata:    md,
	}
}
