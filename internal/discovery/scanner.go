// Package discovery enumerates the registered members that carry a
// node-exposing marker and groups every marker attached to them.
//
// Scanning is pure and best-effort: a member with a conflicting marker
// combination is reported with a DiscoveryError and excluded, while the scan
// continues for every other member. Output order is lexical by
// fully-qualified member name, independent of registration order.
package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
)

// Member is a discovered member paired with all of its markers.
type Member struct {
	Source *registry.Member

	// Exactly one of Node, Property and Event is set.
	Node     *marker.Node
	Property *marker.Property
	Event    *marker.Event

	// Per-parameter markers keyed by parameter name. Outputs may also be
	// keyed by marker.ReturnPort.
	Inputs      map[string]marker.Input
	Outputs     map[string]marker.Output
	Constraints map[string]marker.TypeConstraint
	// FlowOutputs preserves declaration order.
	FlowOutputs []marker.FlowOutput

	// Category is the category bound to the member's owner, if any.
	Category *marker.Category
}

// ID returns the fully-qualified identity of the member.
func (m *Member) ID() string { return m.Source.ID() }

// Result is the outcome of a scan.
type Result struct {
	Members []*Member
	Errors  []*bridgeerr.DiscoveryError
}

// Scan walks every registered member.
func Scan(ctx context.Context, reg *registry.Registry) *Result {
	logger := ctxlog.FromContext(ctx)
	res := &Result{}

	for _, src := range reg.Members() {
		m, err := scanMember(reg, src)
		if err != nil {
			logger.Warn("Member excluded during discovery.", "member", src.ID(), "reason", err.Reason)
			res.Errors = append(res.Errors, err)
			continue
		}
		if m == nil {
			logger.Debug("Member carries no exposing marker, skipping.", "member", src.ID())
			continue
		}
		res.Members = append(res.Members, m)
	}

	// Registry order is already lexical; sort again so callers constructing
	// results by other means get the same guarantee.
	sort.SliceStable(res.Members, func(i, j int) bool { return res.Members[i].ID() < res.Members[j].ID() })
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Member < res.Errors[j].Member })

	logger.Debug("Discovery finished.", "members", len(res.Members), "errors", len(res.Errors))
	return res
}

func scanMember(reg *registry.Registry, src *registry.Member) (*Member, *bridgeerr.DiscoveryError) {
	fail := func(format string, args ...any) *bridgeerr.DiscoveryError {
		return &bridgeerr.DiscoveryError{Member: src.ID(), Reason: fmt.Sprintf(format, args...)}
	}

	m := &Member{
		Source:      src,
		Inputs:      make(map[string]marker.Input),
		Outputs:     make(map[string]marker.Output),
		Constraints: make(map[string]marker.TypeConstraint),
	}

	var exposing []marker.Kind
	for _, mk := range src.Markers {
		switch v := mk.(type) {
		case marker.Node:
			exposing = append(exposing, v.Kind())
			m.Node = &v
		case marker.Property:
			exposing = append(exposing, v.Kind())
			m.Property = &v
		case marker.Event:
			exposing = append(exposing, v.Kind())
			m.Event = &v
		case marker.Input:
			if _, dup := m.Inputs[v.Param]; dup {
				return nil, fail("more than one input marker for parameter '%s'", v.Param)
			}
			m.Inputs[v.Param] = v
		case marker.Output:
			if _, dup := m.Outputs[v.Param]; dup {
				return nil, fail("more than one output marker for parameter '%s'", v.Param)
			}
			m.Outputs[v.Param] = v
		case marker.TypeConstraint:
			if _, dup := m.Constraints[v.Param]; dup {
				return nil, fail("more than one type constraint for type parameter '%s'", v.Param)
			}
			m.Constraints[v.Param] = v
		case marker.FlowOutput:
			m.FlowOutputs = append(m.FlowOutputs, v)
		case marker.Category:
			return nil, fail("category markers apply to an owner, not to a member")
		default:
			return nil, fail("unknown marker type %T", mk)
		}
	}

	if len(exposing) == 0 {
		return nil, nil
	}
	if len(exposing) > 1 {
		return nil, fail("conflicting exposing markers %v: a member is exposed by exactly one node, property or event marker", exposing)
	}

	switch {
	case m.Node != nil && src.Kind != registry.KindMethod:
		return nil, fail("node marker on a non-invocable %s", src.Kind)
	case m.Property != nil && src.Kind != registry.KindProperty:
		return nil, fail("property marker on a %s", src.Kind)
	case m.Event != nil && src.Kind != registry.KindEvent:
		return nil, fail("event marker on a %s", src.Kind)
	}

	if err := checkMarkerTargets(m, fail); err != nil {
		return nil, err
	}

	if c, ok := reg.CategoryOf(src.Owner); ok {
		m.Category = &c
	}
	return m, nil
}

func checkMarkerTargets(m *Member, fail func(string, ...any) *bridgeerr.DiscoveryError) *bridgeerr.DiscoveryError {
	src := m.Source

	if src.Kind == registry.KindProperty {
		if src.Get == nil {
			if m.Property.ReadOnly {
				return fail("property is marked read-only but has no getter")
			}
			return fail("property has a setter but no getter: read-only and write-only access are both implied")
		}
		if len(m.Inputs) > 0 || len(m.Outputs) > 0 || len(m.Constraints) > 0 {
			return fail("port markers are not supported on properties")
		}
	}
	if src.Kind != registry.KindMethod && len(m.FlowOutputs) > 0 {
		return fail("flow output markers are only supported on methods")
	}
	if src.Kind == registry.KindEvent && (len(m.Inputs) > 0 || len(m.Constraints) > 0) {
		return fail("events only support output markers for their payload")
	}

	for _, name := range sortedKeys(m.Inputs) {
		p, ok := src.Param(name)
		if !ok {
			return fail("input marker names unknown parameter '%s'", name)
		}
		if p.Out {
			return fail("input marker on out-parameter '%s'", name)
		}
	}
	for _, name := range sortedKeys(m.Outputs) {
		if name == marker.ReturnPort && src.Kind == registry.KindMethod {
			continue
		}
		p, ok := src.Param(name)
		if !ok {
			return fail("output marker names unknown parameter '%s'", name)
		}
		if src.Kind == registry.KindMethod && !p.Out {
			return fail("output marker on input parameter '%s'", name)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
