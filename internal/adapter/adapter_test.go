package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/invoke"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

func testCtx() context.Context {
	return ctxlog.Discard(context.Background())
}

// emitAll runs the whole pipeline over the registered members.
func emitAll(t *testing.T, fn func(r *registry.Registry)) *Cache {
	t.Helper()
	ctx := testCtx()
	r := registry.New()
	fn(r)
	scanned := discovery.Scan(ctx, r)
	require.Empty(t, scanned.Errors)
	built := schema.NewBuilder(nil, 0).BuildAll(ctx, scanned.Members)
	require.Empty(t, built.Errors)

	c := NewCache(nil, 0)
	require.NoError(t, c.EmitAll(ctx, built))
	return c
}

func adapterFor(t *testing.T, c *Cache, id string) *Adapter {
	t.Helper()
	a, ok := c.Get(id)
	require.True(t, ok, "adapter %s", id)
	return a
}

func bindOnly(t *testing.T, a *Adapter) *Specialization {
	t.Helper()
	s, err := a.Bind(nil)
	require.NoError(t, err)
	return s
}

func faultReason(t *testing.T, err error) bridgeerr.FaultReason {
	t.Helper()
	var fault *bridgeerr.DispatchFault
	require.True(t, errors.As(err, &fault), "expected a dispatch fault, got %v", err)
	return fault.Reason
}

func branching(ret func(x int) int) func(r *registry.Registry) {
	return func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner:  "Test",
			Name:   "Branch",
			Params: []registry.Param{{Name: "x", Type: valuetype.Int}},
			Return: valuetype.Int,
			Fn:     ret,
			Markers: []marker.Marker{
				marker.Node{MenuPath: "Test/Branch"},
				marker.FlowOutput{Name: "A"},
				marker.FlowOutput{Name: "B"},
				marker.FlowOutput{Name: "C"},
			},
		})
	}
}

func TestInvoke_NonFlowOutputs(t *testing.T) {
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner: "Math",
			Name:  "DivMod",
			Params: []registry.Param{
				{Name: "a", Type: valuetype.Int},
				{Name: "b", Type: valuetype.Int},
				{Name: "rem", Type: valuetype.Int, Out: true},
			},
			Return:  valuetype.Int,
			Fn:      func(a, b int) (int, int) { return a / b, a % b },
			Markers: []marker.Marker{marker.Node{MenuPath: "Math/Div Mod", Flow: marker.Ptr(false)}},
		})
	})
	a := adapterFor(t, c, "Math.DivMod")
	assert.Empty(t, a.Descriptor().Successors())

	res, err := bindOnly(t, a).Invoke(testCtx(), Bindings{"a": cty.NumberIntVal(17), "b": cty.NumberIntVal(5)})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)
	assert.True(t, res.Outputs[0].RawEquals(cty.NumberIntVal(3)))
	rem, ok := res.Output("rem")
	require.True(t, ok)
	assert.True(t, rem.RawEquals(cty.NumberIntVal(2)))
	assert.Equal(t, 0, res.Selected)
}

func TestInvoke_ImplicitSuccessorSelectsZero(t *testing.T) {
	var printed string
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner:   "Flow",
			Name:    "Print",
			Params:  []registry.Param{{Name: "msg", Type: valuetype.String}},
			Fn:      func(msg string) { printed = msg },
			Markers: []marker.Marker{marker.Node{MenuPath: "Flow/Print"}},
		})
	})
	res, err := bindOnly(t, adapterFor(t, c, "Flow.Print")).Invoke(testCtx(), Bindings{"msg": cty.StringVal("hi")})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Selected)
	assert.Empty(t, res.Outputs)
	assert.Equal(t, "hi", printed)
}

func TestInvoke_BranchSelector(t *testing.T) {
	testCases := []struct {
		name     string
		ret      int
		want     int
		outRange bool
	}{
		{name: "first", ret: 0, want: 0},
		{name: "last", ret: 2, want: 2},
		{name: "one past the end faults", ret: 3, outRange: true},
		{name: "negative faults", ret: -1, outRange: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := emitAll(t, branching(func(int) int { return tc.ret }))
			res, err := bindOnly(t, adapterFor(t, c, "Test.Branch")).Invoke(testCtx(), Bindings{"x": cty.NumberIntVal(1)})
			if tc.outRange {
				assert.Nil(t, res)
				assert.Equal(t, bridgeerr.FaultSelectorOutOfRange, faultReason(t, err))
				var fault *bridgeerr.DispatchFault
				require.ErrorAs(t, err, &fault)
				assert.Equal(t, int64(tc.ret), fault.Selector)
				assert.Equal(t, 3, fault.Successors)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Selected)
		})
	}
}

func TestInvoke_FloatBranchSelector(t *testing.T) {
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner:  "Test",
			Name:   "FBranch",
			Params: []registry.Param{{Name: "x", Type: valuetype.Float}},
			Return: valuetype.Float,
			Fn:     func(x float64) float64 { return x },
			Markers: []marker.Marker{
				marker.Node{MenuPath: "Test/F Branch"},
				marker.FlowOutput{Name: "A"},
				marker.FlowOutput{Name: "B"},
				marker.FlowOutput{Name: "C"},
			},
		})
	})
	s := bindOnly(t, adapterFor(t, c, "Test.FBranch"))
	require.True(t, s.Descriptor().BranchesOnReturn())

	res, err := s.Invoke(testCtx(), Bindings{"x": cty.NumberFloatVal(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Selected)

	_, err = s.Invoke(testCtx(), Bindings{"x": cty.NumberFloatVal(5)})
	assert.Equal(t, bridgeerr.FaultSelectorOutOfRange, faultReason(t, err))
	var fault *bridgeerr.DispatchFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, int64(5), fault.Selector)
	assert.Equal(t, 3, fault.Successors)

	_, err = s.Invoke(testCtx(), Bindings{"x": cty.NumberFloatVal(1.5)})
	assert.Equal(t, bridgeerr.FaultSelectorOutOfRange, faultReason(t, err))
}

func TestInvoke_BoundValuesAreNotCoerced(t *testing.T) {
	c := emitAll(t, func(r *registry.Registry) {
		branching(func(x int) int { return x })(r)
		r.RegisterMethod(&registry.Method{
			Owner:   "Test",
			Name:    "Echo",
			Params:  []registry.Param{{Name: "s", Type: valuetype.String}},
			Return:  valuetype.String,
			Fn:      func(s string) string { return s },
			Markers: []marker.Marker{marker.Node{MenuPath: "Test/Echo", Flow: marker.Ptr(false)}},
		})
	})

	_, err := bindOnly(t, adapterFor(t, c, "Test.Branch")).Invoke(testCtx(), Bindings{"x": cty.StringVal("1")})
	assert.Equal(t, bridgeerr.FaultTypeMismatch, faultReason(t, err))

	echo := bindOnly(t, adapterFor(t, c, "Test.Echo"))
	_, err = echo.Invoke(testCtx(), Bindings{"s": cty.True})
	assert.Equal(t, bridgeerr.FaultTypeMismatch, faultReason(t, err))
	_, err = echo.Invoke(testCtx(), Bindings{"s": cty.NumberIntVal(7)})
	assert.Equal(t, bridgeerr.FaultTypeMismatch, faultReason(t, err))

	res, err := echo.Invoke(testCtx(), Bindings{"s": cty.StringVal("ok")})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Outputs[0].AsString())
}

func TestInvoke_DefaultsAndHiddenPorts(t *testing.T) {
	var got []int
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner: "Test",
			Name:  "Record",
			Params: []registry.Param{
				{Name: "visible", Type: valuetype.Int},
				{Name: "secret", Type: valuetype.Int},
				{Name: "required", Type: valuetype.Int},
			},
			Fn: func(visible, secret, required int) { got = []int{visible, secret, required} },
			Markers: []marker.Marker{
				marker.Node{MenuPath: "Test/Record"},
				marker.Input{Param: "visible", Default: marker.Ptr(cty.NumberIntVal(1))},
				marker.Input{Param: "secret", Hidden: true, Default: marker.Ptr(cty.NumberIntVal(42))},
			},
		})
	})
	s := bindOnly(t, adapterFor(t, c, "Test.Record"))

	_, err := s.Invoke(testCtx(), Bindings{"secret": cty.NumberIntVal(-5), "required": cty.NumberIntVal(3)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 42, 3}, got)

	_, err = s.Invoke(testCtx(), Bindings{"visible": cty.NumberIntVal(8), "required": cty.NumberIntVal(3)})
	require.NoError(t, err)
	assert.Equal(t, []int{8, 42, 3}, got)

	_, err = s.Invoke(testCtx(), Bindings{"visible": cty.NumberIntVal(8)})
	assert.Equal(t, bridgeerr.FaultMissingInput, faultReason(t, err))

	_, err = s.Invoke(testCtx(), Bindings{"required": cty.StringVal("three")})
	assert.Equal(t, bridgeerr.FaultTypeMismatch, faultReason(t, err))
}

func TestInvoke_FailuresBecomeFaults(t *testing.T) {
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterMethod(&registry.Method{
			Owner: "Test", Name: "Fails",
			Fn:      func() error { return errors.New("boom") },
			Markers: []marker.Marker{marker.Node{MenuPath: "Test/Fails"}},
		})
		r.RegisterMethod(&registry.Method{
			Owner: "Test", Name: "Panics",
			Fn:      func() { panic("kaboom") },
			Markers: []marker.Marker{marker.Node{MenuPath: "Test/Panics"}},
		})
	})

	_, err := bindOnly(t, adapterFor(t, c, "Test.Fails")).Invoke(testCtx(), nil)
	assert.Equal(t, bridgeerr.FaultInvocationFailed, faultReason(t, err))
	assert.ErrorContains(t, err, "boom")

	_, err = bindOnly(t, adapterFor(t, c, "Test.Panics")).Invoke(testCtx(), nil)
	assert.Equal(t, bridgeerr.FaultInvocationFailed, faultReason(t, err))
	var panicErr *invoke.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func registerAdd(r *registry.Registry) {
	r.RegisterMethod(&registry.Method{
		Owner: "Math",
		Name:  "Add",
		Params: []registry.Param{
			{Name: "a", Type: valuetype.Var("T")},
			{Name: "b", Type: valuetype.Var("T")},
		},
		Return: valuetype.Var("T"),
		Fn: func(a, b cty.Value) cty.Value {
			if a.Type() == cty.String {
				return cty.StringVal(a.AsString() + b.AsString())
			}
			return a.Add(b)
		},
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Math/Add", Flow: marker.Ptr(false)},
			marker.TypeConstraint{Param: "T", Types: []valuetype.Type{valuetype.Int, valuetype.Float, valuetype.String}},
		},
	})
}

func TestBind_GenericSpecializations(t *testing.T) {
	c := emitAll(t, registerAdd)
	a := adapterFor(t, c, "Math.Add")

	specs := a.Specializations()
	require.Len(t, specs, 3)
	keys := []string{specs[0].Key(), specs[1].Key(), specs[2].Key()}
	assert.ElementsMatch(t, []string{"T=int", "T=float", "T=string"}, keys)

	s, err := a.Bind(map[string]valuetype.Type{"a": valuetype.String})
	require.NoError(t, err)
	assert.Equal(t, "T=string", s.Key())
	assert.True(t, s.Inputs()[1].ValueType.Equal(valuetype.String))
	res, err := s.Invoke(testCtx(), Bindings{"a": cty.StringVal("foo"), "b": cty.StringVal("bar")})
	require.NoError(t, err)
	assert.True(t, res.Outputs[0].RawEquals(cty.StringVal("foobar")))

	s, err = a.Bind(map[string]valuetype.Type{"a": valuetype.Int, "return": valuetype.Int})
	require.NoError(t, err)
	res, err = s.Invoke(testCtx(), Bindings{"a": cty.NumberIntVal(2), "b": cty.NumberIntVal(3)})
	require.NoError(t, err)
	assert.True(t, res.Outputs[0].RawEquals(cty.NumberIntVal(5)))

	_, err = s.Invoke(testCtx(), Bindings{"a": cty.NumberFloatVal(2.5), "b": cty.NumberIntVal(3)})
	assert.Equal(t, bridgeerr.FaultTypeMismatch, faultReason(t, err))
}

func TestBind_Rejections(t *testing.T) {
	c := emitAll(t, registerAdd)
	a := adapterFor(t, c, "Math.Add")

	testCases := []struct {
		name  string
		types map[string]valuetype.Type
	}{
		{name: "type outside the constraint", types: map[string]valuetype.Type{"a": valuetype.Bool}},
		{name: "conflicting ports", types: map[string]valuetype.Type{"a": valuetype.Int, "b": valuetype.String}},
		{name: "unbound type parameter", types: nil},
		{name: "unknown port", types: map[string]valuetype.Type{"c": valuetype.Int}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := a.Bind(tc.types)
			assert.Nil(t, s)
			var bindErr *bridgeerr.BindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, "Math.Add", bindErr.Descriptor)
		})
	}

	_, err := a.Bind(map[string]valuetype.Type{"a": valuetype.Bool})
	var bindErr *bridgeerr.BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "bool", bindErr.Type)
	assert.Equal(t, []string{"int", "float", "string"}, bindErr.Allowed)
}

func TestInvoke_PropertyAndEvent(t *testing.T) {
	gravity := -9.81
	c := emitAll(t, func(r *registry.Registry) {
		r.RegisterProperty(&registry.Property{Owner: "Physics", Name: "Gravity", Type: valuetype.Float,
			Get:     func() float64 { return gravity },
			Set:     func(v float64) { gravity = v },
			Markers: []marker.Marker{marker.Property{MenuPath: "Physics/Gravity"}}})
		r.RegisterEvent(&registry.Event{Owner: "Game", Name: "OnScore",
			Params:  []registry.Param{{Name: "points", Type: valuetype.Int}},
			Markers: []marker.Marker{marker.Event{MenuPath: "Events/On Score"}}})
	})

	_, err := bindOnly(t, adapterFor(t, c, "Physics.Gravity#set")).Invoke(testCtx(), Bindings{"value": cty.NumberFloatVal(-1.62)})
	require.NoError(t, err)
	res, err := bindOnly(t, adapterFor(t, c, "Physics.Gravity#get")).Invoke(testCtx(), nil)
	require.NoError(t, err)
	assert.True(t, res.Outputs[0].RawEquals(cty.NumberFloatVal(-1.62)))

	ev := bindOnly(t, adapterFor(t, c, "Game.OnScore"))
	res, err = ev.Invoke(testCtx(), Bindings{"points": cty.NumberIntVal(10)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Selected)
	points, _ := res.Output("points")
	assert.True(t, points.RawEquals(cty.NumberIntVal(10)))

	_, err = ev.Invoke(testCtx(), nil)
	assert.Equal(t, bridgeerr.FaultMissingInput, faultReason(t, err))
}

func TestCache_EmitAllReplacesContents(t *testing.T) {
	c := emitAll(t, branching(func(x int) int { return x }))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.EmitAll(testCtx(), &schema.BuildResult{}))
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("Test.Branch")
	assert.False(t, ok)
}
