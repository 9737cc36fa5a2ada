// Package manifest loads markers from HCL files and attaches them to members
// that are already registered in Go.
//
// A manifest is an alternate authoring surface for markers: the implementation
// of a member always comes from a registered module, the manifest only
// decides how it is exposed. Example:
//
//	category "Math" {
//	  owner    = "Math"
//	  icon     = "calculator"
//	  priority = 5
//	}
//
//	node "Math.Sign" {
//	  menu_path = "Math/Sign"
//	  input "x" { default = 0 }
//	  flow_output "Zero" {}
//	  flow_output "Positive" {}
//	  flow_output "Negative" {}
//	}
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/fsutil"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file extension of manifest files.
const Extension = ".hcl"

// Attachment is the set of markers a manifest declares for one member.
type Attachment struct {
	Member  string
	Markers []marker.Marker
}

// Category is a category marker declared by a manifest.
type Category struct {
	Owner  string
	Marker marker.Category
}

// Set is the merged content of every loaded manifest file.
type Set struct {
	Files       []string
	Categories  []Category
	Attachments []Attachment
}

// Load parses every manifest file found under paths. Directories are walked
// recursively and missing paths are skipped. A malformed file fails the whole
// load.
func Load(ctx context.Context, u *valuetype.Universe, paths ...string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Manifest loader started.", "path_count", len(paths))

	if u == nil {
		u = valuetype.Default()
	}

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	set := &Set{Files: files}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", file, diags)
		}
		if err := set.decode(ctx, u, hclFile.Body); err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", file, err)
		}
	}

	logger.Info("Manifests loaded.", "files", len(files), "categories", len(set.Categories), "members", len(set.Attachments))
	return set, nil
}

// Parse decodes a single manifest from memory.
func Parse(ctx context.Context, u *valuetype.Universe, src []byte, filename string) (*Set, error) {
	if u == nil {
		u = valuetype.Default()
	}
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	set := &Set{Files: []string{filename}}
	if err := set.decode(ctx, u, hclFile.Body); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, err)
	}
	return set, nil
}

func (s *Set) decode(ctx context.Context, u *valuetype.Universe, body hcl.Body) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return diags
	}

	for _, c := range root.Categories {
		s.Categories = append(s.Categories, Category{
			Owner:  c.Owner,
			Marker: marker.Category{Path: c.Path, Icon: c.Icon, Priority: c.Priority},
		})
	}
	for _, n := range root.Nodes {
		markers, err := translateNode(ctx, u, n)
		if err != nil {
			return fmt.Errorf("node '%s': %w", n.Member, err)
		}
		s.Attachments = append(s.Attachments, Attachment{Member: n.Member, Markers: markers})
	}
	for _, p := range root.Properties {
		s.Attachments = append(s.Attachments, Attachment{Member: p.Member, Markers: []marker.Marker{
			marker.Property{MenuPath: p.MenuPath, ReadOnly: p.ReadOnly, Icon: p.Icon, Tooltip: p.Tooltip},
		}})
	}
	for _, e := range root.Events {
		markers := []marker.Marker{
			marker.Event{MenuPath: e.MenuPath, Icon: e.Icon, Tooltip: e.Tooltip, Networked: e.Networked},
		}
		for _, o := range e.Outputs {
			markers = append(markers, marker.Output{Param: o.Param, DisplayName: o.DisplayName, Tooltip: o.Tooltip})
		}
		s.Attachments = append(s.Attachments, Attachment{Member: e.Member, Markers: markers})
	}
	return nil
}

func translateNode(ctx context.Context, u *valuetype.Universe, n *nodeBlock) ([]marker.Marker, error) {
	logger := ctxlog.FromContext(ctx).With("member", n.Member)
	logger.Debug("Translating node block.", "inputs", len(n.Inputs), "outputs", len(n.Outputs))

	markers := []marker.Marker{marker.Node{
		MenuPath:       n.MenuPath,
		Icon:           n.Icon,
		Flow:           n.Flow,
		Color:          n.Color,
		Tooltip:        n.Tooltip,
		Category:       n.Category,
		Searchable:     n.Searchable,
		SearchKeywords: n.Keywords,
	}}

	for _, in := range n.Inputs {
		mk := marker.Input{
			Param:       in.Param,
			DisplayName: in.DisplayName,
			Hidden:      in.Hidden,
			Tooltip:     in.Tooltip,
			Min:         in.Min,
			Max:         in.Max,
		}
		def, err := defaultValue(in.Default)
		if err != nil {
			return nil, fmt.Errorf("input '%s': %w", in.Param, err)
		}
		mk.Default = def
		markers = append(markers, mk)
	}
	for _, out := range n.Outputs {
		markers = append(markers, marker.Output{Param: out.Param, DisplayName: out.DisplayName, Tooltip: out.Tooltip})
	}
	for _, fo := range n.FlowOutputs {
		markers = append(markers, marker.FlowOutput{Name: fo.Name, Tooltip: fo.Tooltip})
	}
	for _, c := range n.Constraints {
		types, err := u.ParseList(c.Types)
		if err != nil {
			return nil, fmt.Errorf("constraint '%s': %w", c.Param, err)
		}
		markers = append(markers, marker.TypeConstraint{Param: c.Param, Types: types})
	}
	return markers, nil
}

// defaultValue evaluates an optional default expression. Omitted attributes
// decode to a zero-width expression and yield no default.
func defaultValue(expr hcl.Expression) (*cty.Value, error) {
	if expr == nil {
		return nil, nil
	}
	r := expr.Range()
	if r.End.Byte <= r.Start.Byte {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid default value: %w", diags)
	}
	if v.IsNull() {
		return nil, nil
	}
	return &v, nil
}

// Apply binds the manifest's categories and attaches its markers to reg.
// Entries naming unknown members, rebinding an owner's category or carrying
// an invalid category path are reported and skipped; everything else is
// applied.
func (s *Set) Apply(ctx context.Context, reg *registry.Registry) []*bridgeerr.DiscoveryError {
	logger := ctxlog.FromContext(ctx)
	var errs []*bridgeerr.DiscoveryError

	for _, c := range s.Categories {
		if err := reg.BindCategory(c.Owner, c.Marker); err != nil {
			logger.Warn("Manifest category skipped.", "path", c.Marker.Path, "error", err)
			subject := c.Owner
			if subject == "" {
				subject = c.Marker.Path
			}
			errs = append(errs, &bridgeerr.DiscoveryError{Member: subject, Reason: "manifest: " + err.Error()})
		}
	}
	for _, a := range s.Attachments {
		if err := reg.Attach(a.Member, a.Markers...); err != nil {
			logger.Warn("Manifest markers skipped.", "member", a.Member, "error", err)
			errs = append(errs, &bridgeerr.DiscoveryError{Member: a.Member, Reason: "manifest: " + err.Error()})
		}
	}

	logger.Debug("Manifest applied.", "attachments", len(s.Attachments), "errors", len(errs))
	return errs
}
