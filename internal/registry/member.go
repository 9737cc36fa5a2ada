package registry

import (
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/valuetype"
)

// MemberKind tags the variant of a Member.
type MemberKind int

const (
	KindMethod MemberKind = iota
	KindProperty
	KindEvent
)

func (k MemberKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Access is the visibility of a member to code outside its owner.
type Access int

const (
	// Public members are externally invocable.
	Public Access = iota
	// Internal members are only visible inside their own module.
	Internal
	// Private members are only visible to their owner.
	Private
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Internal:
		return "internal"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

// Param is one declared parameter of a method or one payload field of an
// event.
type Param struct {
	Name string
	Type valuetype.Type
	// Out marks an out-parameter. Its value is produced by the member and
	// surfaces as an output port; Go implementations return it as an extra
	// result.
	Out bool
}

// Method registers an invocable function.
//
// Fn must be a Go func whose parameters are, in order, an optional leading
// context.Context followed by the non-out params. Its results are the return
// value (unless Return is Void), then the out params in declaration order,
// then an optional trailing error.
type Method struct {
	Owner   string
	Name    string
	Access  Access
	Params  []Param
	Return  valuetype.Type
	Fn      any
	Markers []marker.Marker
}

// Property registers a value with a getter and an optional setter.
//
// Get has the shape func([context.Context]) (T[, error]); Set has the shape
// func([context.Context,] T) [error].
type Property struct {
	Owner   string
	Name    string
	Access  Access
	Type    valuetype.Type
	Get     any
	Set     any
	Markers []marker.Marker
}

// Event registers a signal the host raises; Params describe its payload.
type Event struct {
	Owner   string
	Name    string
	Access  Access
	Params  []Param
	Markers []marker.Marker
}

// Member is the tagged variant stored in the registry. Only the fields of its
// Kind are meaningful.
type Member struct {
	Owner  string
	Name   string
	Kind   MemberKind
	Access Access

	// Method and event fields.
	Params []Param
	Return valuetype.Type
	Fn     any

	// Property fields.
	Type valuetype.Type
	Get  any
	Set  any

	Markers []marker.Marker
}

// ID returns the fully-qualified identity of the member.
func (m *Member) ID() string {
	return MemberID(m.Owner, m.Name)
}

// Param finds a declared parameter by name.
func (m *Member) Param(name string) (Param, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// clone returns a copy whose slices can be appended to independently.
func (m *Member) clone() *Member {
	c := *m
	c.Params = append([]Param(nil), m.Params...)
	c.Markers = append([]marker.Marker(nil), m.Markers...)
	return &c
}

// MemberID joins an owner and a member name into a fully-qualified identity.
func MemberID(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}
