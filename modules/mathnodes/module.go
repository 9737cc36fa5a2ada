package mathnodes

import (
	"errors"
	"math"

	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Owner is the owner name of every member of this module.
const Owner = "Math"

// ErrDivisionByZero is returned by DivMod for a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Vector3 carries a vector3 value across the Go boundary.
type Vector3 struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
	Z float64 `cty:"z"`
}

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVector3 interpolates each component of a and b.
func LerpVector3(a, b Vector3, t float64) Vector3 {
	return Vector3{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t), Z: Lerp(a.Z, b.Z, t)}
}

// Add sums two numbers or concatenates two strings. Both operands have the
// same type, fixed by the specialization.
func Add(a, b cty.Value) cty.Value {
	if a.Type() == cty.String {
		return cty.StringVal(a.AsString() + b.AsString())
	}
	return a.Add(b)
}

// Sign selects the successor for zero (0), positive (1) and negative (2)
// input.
func Sign(x int) int {
	switch {
	case x == 0:
		return 0
	case x > 0:
		return 1
	default:
		return 2
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DivMod returns the truncated quotient and the remainder of a / b.
func DivMod(a, b int) (int, int, error) {
	if b == 0 {
		return 0, 0, ErrDivisionByZero
	}
	return a / b, a % b, nil
}

// Register registers the module's members with the registry.
func (m *Module) Register(r *registry.Registry) {
	pure := marker.Ptr(false)
	f, i := valuetype.Float, valuetype.Int
	t := valuetype.Var("T")

	r.RegisterCategory(Owner, marker.Category{Path: "Math", Icon: "calculator", Priority: marker.Ptr(5)})

	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Lerp",
		Params: []registry.Param{{Name: "a", Type: f}, {Name: "b", Type: f}, {Name: "t", Type: f}},
		Return: f,
		Fn:     Lerp,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Interpolation/Lerp", Flow: pure, SearchKeywords: []string{"blend", "mix", "interpolate"}},
			marker.Input{Param: "t", DisplayName: "Alpha", Default: marker.Ptr(cty.NumberFloatVal(0.5)), Min: marker.Ptr(0.0), Max: marker.Ptr(1.0)},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "LerpVector3",
		Params: []registry.Param{{Name: "a", Type: valuetype.Vector3}, {Name: "b", Type: valuetype.Vector3}, {Name: "t", Type: f}},
		Return: valuetype.Vector3,
		Fn:     LerpVector3,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Interpolation/Lerp Vector3", Flow: pure, SearchKeywords: []string{"blend", "mix"}},
			marker.Input{Param: "t", DisplayName: "Alpha", Default: marker.Ptr(cty.NumberFloatVal(0.5)), Min: marker.Ptr(0.0), Max: marker.Ptr(1.0)},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Add",
		Params: []registry.Param{{Name: "a", Type: t}, {Name: "b", Type: t}},
		Return: t,
		Fn:     Add,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Add", Flow: pure, SearchKeywords: []string{"plus", "sum"}},
			marker.TypeConstraint{Param: "T", Types: []valuetype.Type{valuetype.Int, valuetype.Float, valuetype.String}},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Sign",
		Params: []registry.Param{{Name: "x", Type: i}},
		Return: i,
		Fn:     Sign,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Sign", Tooltip: "Branches on the sign of x.", SearchKeywords: []string{"branch"}},
			marker.FlowOutput{Name: "Zero"},
			marker.FlowOutput{Name: "Positive"},
			marker.FlowOutput{Name: "Negative"},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Clamp",
		Params: []registry.Param{{Name: "value", Type: f}, {Name: "min", Type: f}, {Name: "max", Type: f}},
		Return: f,
		Fn:     Clamp,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Clamp", Flow: pure},
			marker.Input{Param: "min", Default: marker.Ptr(cty.Zero)},
			marker.Input{Param: "max", Default: marker.Ptr(cty.NumberIntVal(1))},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner: Owner,
		Name:  "DivMod",
		Params: []registry.Param{
			{Name: "a", Type: i},
			{Name: "b", Type: i},
			{Name: "remainder", Type: i, Out: true},
		},
		Return: i,
		Fn:     DivMod,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Integer/Div Mod", Flow: pure, SearchKeywords: []string{"divide", "modulo"}},
			marker.Input{Param: "b", DisplayName: "Divisor", Default: marker.Ptr(cty.NumberIntVal(1))},
			marker.Output{Param: marker.ReturnPort, DisplayName: "Quotient"},
			marker.Output{Param: "remainder", DisplayName: "Remainder"},
		},
	})
}
