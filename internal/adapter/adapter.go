// Package adapter generates the uniform invocation binding of a node
// descriptor.
//
// An Adapter is emitted once per descriptor. It owns one Specialization per
// combination of allowed types of its type parameters (a single one for
// non-generic descriptors). Specializations are immutable and safe for
// concurrent use; all per-invocation state lives in the caller's Bindings.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Bindings maps input port names to the values connected to them. A port
// missing from the map, or bound to cty.NilVal, is unconnected.
type Bindings map[string]cty.Value

// Result is the outcome of a successful invocation.
type Result struct {
	// Outputs follow the descriptor's output port order.
	Outputs []cty.Value
	// Selected is the index of the execution successor to run.
	Selected int

	ports []schema.PortDescriptor
}

// Output returns the value of the named output port.
func (r *Result) Output(name string) (cty.Value, bool) {
	for i, p := range r.ports {
		if p.Name == name {
			return r.Outputs[i], true
		}
	}
	return cty.NilVal, false
}

// callFunc runs the underlying member with concrete arguments.
type callFunc func(ctx context.Context, args []cty.Value, outTypes []valuetype.Type) ([]cty.Value, error)

// Adapter is the emitted binding of one descriptor.
type Adapter struct {
	desc  *schema.NodeDescriptor
	specs []*Specialization
	byKey map[string]*Specialization
}

// Descriptor returns the descriptor the adapter was emitted for.
func (a *Adapter) Descriptor() *schema.NodeDescriptor { return a.desc }

// Specializations returns every specialization ordered by key.
func (a *Adapter) Specializations() []*Specialization {
	return append([]*Specialization(nil), a.specs...)
}

// Specialization looks up a specialization by key, see Specialization.Key.
func (a *Adapter) Specialization(key string) (*Specialization, bool) {
	s, ok := a.byKey[key]
	return s, ok
}

// Bind selects the specialization matching the concrete types of connected
// ports, keyed by port name. Ports may be inputs or outputs. For a
// non-generic descriptor an empty map selects the only specialization.
func (a *Adapter) Bind(types map[string]valuetype.Type) (*Specialization, error) {
	resolved := make(map[string]valuetype.Type, len(a.desc.TypeParams))
	resolvedBy := make(map[string]string, len(a.desc.TypeParams))

	for _, name := range sortedKeys(types) {
		t := types[name]
		port, ok := a.desc.Input(name)
		if !ok {
			port, ok = a.desc.Output(name)
		}
		if !ok {
			return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Port: name, Type: t.String(), Detail: "no such port"}
		}

		if !port.ValueType.IsVar() {
			if !port.ValueType.Equal(t) {
				return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Port: name, Type: t.String(),
					Allowed: []string{port.ValueType.String()}}
			}
			continue
		}

		if !containsType(port.Constraint, t) {
			return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Port: name, Type: t.String(),
				Allowed: typeNames(port.Constraint)}
		}
		v := port.ValueType.Name()
		if prev, ok := resolved[v]; ok && !prev.Equal(t) {
			return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Port: name, Type: t.String(),
				Detail: fmt.Sprintf("type parameter %s is already bound to %s by port '%s'", v, prev, resolvedBy[v])}
		}
		resolved[v] = t
		resolvedBy[v] = name
	}

	for _, tp := range a.desc.TypeParams {
		if _, ok := resolved[tp.Name]; !ok {
			return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Port: firstPortUsing(a.desc, tp.Name),
				Allowed: typeNames(tp.Allowed), Detail: fmt.Sprintf("type parameter %s is not bound", tp.Name)}
		}
	}

	s, ok := a.byKey[specKey(a.desc.TypeParams, resolved)]
	if !ok {
		// Unreachable while specializations cover the full product.
		return nil, &bridgeerr.BindingError{Descriptor: a.desc.ID, Detail: "no specialization for the bound types"}
	}
	return s, nil
}

// Specialization is an adapter with every type parameter fixed.
type Specialization struct {
	desc    *schema.NodeDescriptor
	key     string
	types   map[string]valuetype.Type
	inputs  []schema.PortDescriptor
	outputs []schema.PortDescriptor
	call    callFunc
}

// Descriptor returns the descriptor of the owning adapter.
func (s *Specialization) Descriptor() *schema.NodeDescriptor { return s.desc }

// Key identifies the specialization, e.g. "T=int". It is empty for
// non-generic descriptors.
func (s *Specialization) Key() string { return s.key }

// Types returns the concrete type of each type parameter.
func (s *Specialization) Types() map[string]valuetype.Type {
	out := make(map[string]valuetype.Type, len(s.types))
	for k, v := range s.types {
		out[k] = v
	}
	return out
}

// Inputs returns the input ports with concrete types.
func (s *Specialization) Inputs() []schema.PortDescriptor { return s.inputs }

// Outputs returns the output ports with concrete types.
func (s *Specialization) Outputs() []schema.PortDescriptor { return s.outputs }

// Invoke runs the member. Hidden inputs always receive their default and
// unconnected inputs fall back to it; an unconnected input without a default
// is a fault. Every failure is returned as a *bridgeerr.DispatchFault.
func (s *Specialization) Invoke(ctx context.Context, in Bindings) (*Result, error) {
	if s.desc.Kind == registry.KindEvent {
		return s.raise(in)
	}
	logger := ctxlog.FromContext(ctx)

	args := make([]cty.Value, len(s.inputs))
	for i, p := range s.inputs {
		v, bound := in[p.Name]
		switch {
		case p.Hidden:
			if bound {
				logger.Debug("Ignoring binding of hidden input.", "node", s.desc.ID, "port", p.Name)
			}
			v = p.Default
		case !bound || v == cty.NilVal:
			if !p.HasDefault() {
				return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultMissingInput, Port: p.Name}
			}
			v = p.Default
		}
		converted, err := p.ValueType.Convert(v)
		if err != nil {
			return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultTypeMismatch, Port: p.Name, Err: err}
		}
		args[i] = converted
	}

	outTypes := make([]valuetype.Type, len(s.outputs))
	for i, p := range s.outputs {
		outTypes[i] = p.ValueType
	}

	outs, err := s.call(ctx, args, outTypes)
	if err != nil {
		return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultInvocationFailed, Err: err}
	}

	res := &Result{Outputs: outs, ports: s.outputs}
	if s.desc.BranchesOnReturn() {
		n := len(s.desc.FlowOutputs)
		ord, err := valuetype.Ordinal(outs[0])
		if err != nil || ord < 0 || ord >= int64(n) {
			return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultSelectorOutOfRange,
				Port: schema.ReturnPortName, Selector: ord, Successors: n, Err: err}
		}
		res.Selected = int(ord)
	}
	return res, nil
}

// raise passes an event payload, bound by output port name, through to the
// outputs. Every payload field must be bound.
func (s *Specialization) raise(in Bindings) (*Result, error) {
	outs := make([]cty.Value, len(s.outputs))
	for i, p := range s.outputs {
		v, ok := in[p.Name]
		if !ok || v == cty.NilVal {
			return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultMissingInput, Port: p.Name}
		}
		converted, err := p.ValueType.Convert(v)
		if err != nil {
			return nil, &bridgeerr.DispatchFault{Descriptor: s.desc.ID, Reason: bridgeerr.FaultTypeMismatch, Port: p.Name, Err: err}
		}
		outs[i] = converted
	}
	return &Result{Outputs: outs, ports: s.outputs}, nil
}

func containsType(set []valuetype.Type, t valuetype.Type) bool {
	for _, s := range set {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

func typeNames(types []valuetype.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

func firstPortUsing(d *schema.NodeDescriptor, v string) string {
	for _, ports := range [][]schema.PortDescriptor{d.Inputs, d.Outputs} {
		for _, p := range ports {
			if p.ValueType.IsVar() && p.ValueType.Name() == v {
				return p.Name
			}
		}
	}
	return ""
}

func specKey(params []schema.TypeParam, types map[string]valuetype.Type) string {
	parts := make([]string, len(params))
	for i, tp := range params {
		parts[i] = tp.Name + "=" + types[tp.Name].Name()
	}
	return strings.Join(parts, ",")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
