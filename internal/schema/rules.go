package schema

import (
	"fmt"
	"math"
	"sort"

	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/invoke"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/menupath"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// collector accumulates the validation errors of one member.
type collector struct {
	member string
	errs   []*bridgeerr.ValidationError
}

func (c *collector) add(rule bridgeerr.Rule, port, format string, args ...any) {
	c.errs = append(c.errs, &bridgeerr.ValidationError{
		Member: c.member,
		Rule:   rule,
		Port:   port,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (c *collector) failed() bool { return len(c.errs) > 0 }

func checkAccess(c *collector, src *registry.Member) {
	if src.Access != registry.Public {
		c.add(bridgeerr.RuleInaccessible, "", "member is %s and cannot be invoked externally", src.Access)
	}
}

func checkMenuPath(c *collector, raw string) menupath.Path {
	p, err := menupath.Parse(raw)
	if err != nil {
		c.add(bridgeerr.RuleInvalidMenuPath, "", "%v", err)
	}
	return p
}

// resolveTypeParams collects the type variables used by the member, in order
// of first use, and checks each against its constraint marker.
func (b *Builder) resolveTypeParams(c *collector, m *discovery.Member, types []valuetype.Type) []TypeParam {
	var order []string
	used := make(map[string]bool)
	for _, t := range types {
		for _, v := range t.Vars() {
			if !used[v] {
				used[v] = true
				order = append(order, v)
			}
		}
	}

	for _, name := range sortedConstraintNames(m) {
		if !used[name] {
			c.add(bridgeerr.RuleUnboundConstraint, "", "type constraint names '%s', which no port uses as a type parameter", name)
		}
	}

	params := make([]TypeParam, 0, len(order))
	for _, name := range order {
		tc, ok := m.Constraints[name]
		if !ok {
			c.add(bridgeerr.RuleUnsupportedType, "", "type parameter '%s' has no type constraint", name)
			continue
		}
		if len(tc.Types) == 0 {
			c.add(bridgeerr.RuleEmptyConstraint, "", "type constraint for '%s' must name at least one type", name)
			continue
		}
		allowed := make([]valuetype.Type, 0, len(tc.Types))
		seen := make(map[string]bool)
		for _, t := range tc.Types {
			if !b.universe.Allows(t) {
				c.add(bridgeerr.RuleUnsupportedType, "", "type constraint for '%s' names %s, which is not supported by the target environment", name, t)
				continue
			}
			if !seen[t.Name()] {
				seen[t.Name()] = true
				allowed = append(allowed, t)
			}
		}
		params = append(params, TypeParam{Name: name, Allowed: allowed})
	}
	return params
}

func sortedConstraintNames(m *discovery.Member) []string {
	names := make([]string, 0, len(m.Constraints))
	for name := range m.Constraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkPortType rejects types outside the universe. A bare type variable is
// accepted here; resolveTypeParams decides whether it is constrained.
func (b *Builder) checkPortType(c *collector, port string, t valuetype.Type) {
	if t.IsVar() {
		return
	}
	if len(t.Vars()) > 0 {
		c.add(bridgeerr.RuleUnsupportedType, port, "type %s nests a type parameter, only bare type parameters are supported", t)
		return
	}
	if !b.universe.Allows(t) {
		c.add(bridgeerr.RuleUnsupportedType, port, "type %s is not supported by the target environment", t)
	}
}

func constraintFor(params []TypeParam, t valuetype.Type) []valuetype.Type {
	if !t.IsVar() {
		return nil
	}
	for _, p := range params {
		if p.Name == t.Name() {
			return append([]valuetype.Type(nil), p.Allowed...)
		}
	}
	return nil
}

// inputPort builds an input port from a parameter and its optional marker.
func inputPort(c *collector, p registry.Param, mk marker.Input, hasMarker bool, params []TypeParam) PortDescriptor {
	port := PortDescriptor{
		Name:        p.Name,
		DisplayName: p.Name,
		ValueType:   p.Type,
		Default:     cty.NilVal,
		Constraint:  constraintFor(params, p.Type),
	}
	if !hasMarker {
		return port
	}
	if mk.DisplayName != "" {
		port.DisplayName = mk.DisplayName
	}
	port.Tooltip = mk.Tooltip
	port.Hidden = mk.Hidden

	if mk.Default != nil {
		port.Default = checkDefault(c, port, *mk.Default)
	}
	if port.Hidden && mk.Default == nil {
		c.add(bridgeerr.RuleHiddenWithoutDefault, p.Name, "hidden input must declare a default value")
	}

	if mk.Min != nil || mk.Max != nil {
		port.Range = checkRange(c, port, mk.Min, mk.Max)
	}
	return port
}

// checkDefault verifies that a default can be assigned to the port. For a
// generic port it must be assignable to every allowed type; the raw value is
// kept and converted per specialization.
func checkDefault(c *collector, port PortDescriptor, def cty.Value) cty.Value {
	if port.ValueType.IsVar() {
		for _, t := range port.Constraint {
			if _, err := t.Convert(def); err != nil {
				c.add(bridgeerr.RuleDefaultNotAssignable, port.Name, "default is not assignable to allowed type %s: %v", t, err)
				return cty.NilVal
			}
		}
		return def
	}
	converted, err := port.ValueType.Convert(def)
	if err != nil {
		c.add(bridgeerr.RuleDefaultNotAssignable, port.Name, "%v", err)
		return cty.NilVal
	}
	return converted
}

func checkRange(c *collector, port PortDescriptor, minV, maxV *float64) *Range {
	numeric := port.ValueType.IsNumeric()
	if port.ValueType.IsVar() {
		numeric = len(port.Constraint) > 0
		for _, t := range port.Constraint {
			numeric = numeric && t.IsNumeric()
		}
	}
	if !numeric {
		c.add(bridgeerr.RuleInvalidRange, port.Name, "presentation range declared on non-numeric type %s", port.ValueType)
		return nil
	}

	r := &Range{Min: math.Inf(-1), Max: math.Inf(1)}
	if minV != nil {
		r.Min = *minV
	}
	if maxV != nil {
		r.Max = *maxV
	}
	if r.Min > r.Max {
		c.add(bridgeerr.RuleInvalidRange, port.Name, "min %g is greater than max %g", r.Min, r.Max)
		return nil
	}
	return r
}

// checkUniqueNames enforces unique binding keys and display names within one
// port list.
func checkUniqueNames(c *collector, direction string, ports []PortDescriptor) {
	names := make(map[string]bool)
	display := make(map[string]bool)
	for _, p := range ports {
		if names[p.Name] {
			c.add(bridgeerr.RuleDuplicatePortName, p.Name, "%s port name '%s' is declared more than once", direction, p.Name)
		}
		names[p.Name] = true
		if display[p.DisplayName] {
			c.add(bridgeerr.RuleDuplicatePortName, p.Name, "%s display name '%s' is used by more than one port", direction, p.DisplayName)
		}
		display[p.DisplayName] = true
	}
}

func (b *Builder) flowOutputs(c *collector, isFlow bool, declared []marker.FlowOutput) []FlowPortDescriptor {
	if !isFlow {
		if len(declared) > 0 {
			c.add(bridgeerr.RuleFlowOutputOnNonFlow, "", "non-flow node declares %d flow outputs", len(declared))
		}
		return nil
	}

	out := make([]FlowPortDescriptor, 0, len(declared))
	seen := make(map[string]bool)
	for i, fo := range declared {
		if fo.Name == "" {
			c.add(bridgeerr.RuleEmptyFlowOutputName, "", "flow output %d has no name", i)
			continue
		}
		if seen[fo.Name] {
			c.add(bridgeerr.RuleDuplicatePortName, fo.Name, "flow output '%s' is declared more than once", fo.Name)
			continue
		}
		seen[fo.Name] = true
		out = append(out, FlowPortDescriptor{Name: fo.Name, Tooltip: fo.Tooltip})
	}
	return out
}

func checkSignature(c *collector, what string, fn any, in, out []valuetype.Type) {
	shape, err := invoke.Analyze(fn)
	if err != nil {
		c.add(bridgeerr.RuleSignatureMismatch, "", "%s: %v", what, err)
		return
	}
	if err := shape.Check(in, out); err != nil {
		c.add(bridgeerr.RuleSignatureMismatch, "", "%s: %v", what, err)
	}
}

func portTypes(ports []PortDescriptor) []valuetype.Type {
	types := make([]valuetype.Type, len(ports))
	for i, p := range ports {
		types[i] = p.ValueType
	}
	return types
}

func metadataFor(m *discovery.Member, icon, color, tooltip string) Metadata {
	md := Metadata{
		Icon:       icon,
		Color:      color,
		Tooltip:    tooltip,
		Searchable: true,
		Priority:   marker.DefaultPriority,
		Category:   m.Source.Owner,
	}
	if m.Category != nil {
		md.Priority = m.Category.EffectivePriority()
		md.Category = m.Category.Path
	}
	return md
}
