package valuetype

import (
	"fmt"
	"sort"
)

// Universe is the set of named types the target environment supports.
type Universe struct {
	types map[string]Type
}

// NewUniverse creates a universe containing the given scalar types. List types
// are derived on demand from their element types.
func NewUniverse(types ...Type) *Universe {
	u := &Universe{types: make(map[string]Type, len(types))}
	for _, t := range types {
		if t.IsVoid() || t.IsVar() {
			panic(fmt.Sprintf("valuetype: %q cannot be registered in a universe", t.String()))
		}
		u.types[t.name] = t
	}
	return u
}

// Default returns the universe used when none is configured.
func Default() *Universe {
	return NewUniverse(Bool, Int, Float, String, Vector3)
}

// Lookup finds a scalar type by name.
func (u *Universe) Lookup(name string) (Type, bool) {
	t, ok := u.types[name]
	return t, ok
}

// Allows reports whether t is a concrete member of the universe.
func (u *Universe) Allows(t Type) bool {
	if t.IsVoid() || t.IsVar() {
		return false
	}
	if elem, ok := t.Elem(); ok {
		return u.Allows(elem)
	}
	registered, ok := u.types[t.name]
	return ok && registered.Equal(t)
}

// Names returns the sorted names of all scalar types.
func (u *Universe) Names() []string {
	names := make([]string, 0, len(u.types))
	for name := range u.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
