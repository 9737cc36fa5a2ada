package valuetype

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Type is a named type of the target environment. The zero value is Void.
type Type struct {
	name    string
	ty      cty.Type
	integer bool
	elem    *Type
	typeVar bool
}

var (
	// Void marks the absence of a value (e.g. a method without a return value).
	Void = Type{}
	// Bool is a boolean.
	Bool = Type{name: "bool", ty: cty.Bool}
	// Int is a whole number.
	Int = Type{name: "int", ty: cty.Number, integer: true}
	// Float is any number.
	Float = Type{name: "float", ty: cty.Number}
	// String is a UTF-8 string.
	String = Type{name: "string", ty: cty.String}
	// Vector3 is a three component vector with float attributes x, y, z.
	Vector3 = Type{name: "vector3", ty: cty.Object(map[string]cty.Type{
		"x": cty.Number,
		"y": cty.Number,
		"z": cty.Number,
	})}
)

var ctyValueType = reflect.TypeOf(cty.Value{})

// List returns the list type with the given element type.
func List(elem Type) Type {
	e := elem
	return Type{name: "list(" + elem.name + ")", ty: cty.List(elem.ty), elem: &e}
}

// Var returns a type variable. Its backing cty type is cty.DynamicPseudoType
// until it is substituted by a concrete type.
func Var(name string) Type {
	return Type{name: name, ty: cty.DynamicPseudoType, typeVar: true}
}

// Name returns the canonical name of the type, e.g. `list(int)`.
func (t Type) Name() string { return t.name }

// String implements fmt.Stringer.
func (t Type) String() string {
	if t.IsVoid() {
		return "void"
	}
	return t.name
}

// Cty returns the backing cty type.
func (t Type) Cty() cty.Type { return t.ty }

// IsVoid reports whether t is Void.
func (t Type) IsVoid() bool { return t.name == "" }

// IsVar reports whether t is a type variable.
func (t Type) IsVar() bool { return t.typeVar }

// IsInteger reports whether t only admits whole numbers.
func (t Type) IsInteger() bool { return t.integer }

// IsNumeric reports whether t is backed by cty.Number.
func (t Type) IsNumeric() bool { return !t.typeVar && t.ty.Equals(cty.Number) }

// Elem returns the element type of a list type and false for any other type.
func (t Type) Elem() (Type, bool) {
	if t.elem == nil {
		return Void, false
	}
	return *t.elem, true
}

// Equal reports whether two types are the same named type.
func (t Type) Equal(other Type) bool {
	return t.name == other.name && t.typeVar == other.typeVar
}

// Substitute replaces type variables according to vars. Types that are not
// variables, and variables missing from vars, are returned unchanged.
func (t Type) Substitute(vars map[string]Type) Type {
	if t.typeVar {
		if concrete, ok := vars[t.name]; ok {
			return concrete
		}
		return t
	}
	if t.elem != nil {
		return List(t.elem.Substitute(vars))
	}
	return t
}

// Vars returns the names of the type variables referenced by t.
func (t Type) Vars() []string {
	switch {
	case t.typeVar:
		return []string{t.name}
	case t.elem != nil:
		return t.elem.Vars()
	default:
		return nil
	}
}

// Convert checks that v can be assigned to t and returns the value converted
// to the backing cty type. v must already have the shape of t: no string,
// number or bool coercion takes place. Tuples are accepted for lists and
// numbers for int only when whole.
func (t Type) Convert(v cty.Value) (cty.Value, error) {
	if t.IsVoid() {
		return cty.NilVal, fmt.Errorf("cannot assign a value to void")
	}
	if t.typeVar {
		return cty.NilVal, fmt.Errorf("cannot assign a value to unresolved type parameter %s", t.name)
	}
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, fmt.Errorf("value of type %s must not be null", t.name)
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value of type %s must be known", t.name)
	}

	if !conforms(v.Type(), t.ty) {
		return cty.NilVal, fmt.Errorf("cannot use %s as %s", v.Type().FriendlyName(), t.name)
	}
	converted, err := convert.Convert(v, t.ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot use %s as %s: %w", v.Type().FriendlyName(), t.name, err)
	}

	if t.integer {
		if !converted.AsBigFloat().IsInt() {
			return cty.NilVal, fmt.Errorf("%s is not a whole number", converted.AsBigFloat().Text('g', -1))
		}
	}
	if t.elem != nil && t.elem.integer {
		it := converted.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, ev := it.Element()
			if _, err := t.elem.Convert(ev); err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
		}
	}
	return converted, nil
}

// conforms reports whether a value of type have is already a value of want,
// up to list/tuple/set collection kind.
func conforms(have, want cty.Type) bool {
	switch {
	case want.IsListType():
		switch {
		case have.IsListType() || have.IsSetType():
			return conforms(have.ElementType(), want.ElementType())
		case have.IsTupleType():
			for _, et := range have.TupleElementTypes() {
				if !conforms(et, want.ElementType()) {
					return false
				}
			}
			return true
		}
		return false
	case want.IsObjectType():
		if !have.IsObjectType() {
			return false
		}
		haveAttrs, wantAttrs := have.AttributeTypes(), want.AttributeTypes()
		if len(haveAttrs) != len(wantAttrs) {
			return false
		}
		for name, wt := range wantAttrs {
			ht, ok := haveAttrs[name]
			if !ok || !conforms(ht, wt) {
				return false
			}
		}
		return true
	default:
		return have.Equals(want)
	}
}

// Ordinal extracts a whole number from v, as used for branch selection.
func Ordinal(v cty.Value) (int64, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("ordinal must be a known number")
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("ordinal %s is not a whole number", bf.Text('g', -1))
	}
	n, acc := bf.Int64()
	if acc != big.Exact {
		return 0, fmt.Errorf("ordinal %s overflows int64", bf.Text('g', -1))
	}
	return n, nil
}

// AcceptsGo reports whether a Go value of type rt can carry values of t when
// a registered function is invoked. Type variables must be carried as
// cty.Value, which is also accepted for every other type.
func (t Type) AcceptsGo(rt reflect.Type) bool {
	if rt == ctyValueType {
		return !t.IsVoid()
	}
	if t.typeVar || t.IsVoid() {
		return false
	}

	switch {
	case t.elem != nil:
		return rt.Kind() == reflect.Slice && t.elem.AcceptsGo(rt.Elem())
	case t.integer:
		switch rt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case t.ty.Equals(cty.Number):
		return rt.Kind() == reflect.Float32 || rt.Kind() == reflect.Float64
	}

	implied, err := gocty.ImpliedType(reflect.Zero(rt).Interface())
	if err != nil {
		return false
	}
	return implied.Equals(t.ty)
}

// JoinNames renders a list of types as a comma separated string.
func JoinNames(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
