package textnodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphbridge/internal/adapter"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func setup(t *testing.T) (*Module, *adapter.Cache, *schema.BuildResult) {
	t.Helper()
	ctx := ctxlog.Discard(context.Background())
	m := &Module{separator: " "}
	r := registry.New()
	m.Register(r)

	scanned := discovery.Scan(ctx, r)
	require.Empty(t, scanned.Errors)
	built := schema.NewBuilder(nil, 0).BuildAll(ctx, scanned.Members)
	require.Empty(t, built.Errors)

	c := adapter.NewCache(nil, 0)
	require.NoError(t, c.EmitAll(ctx, built))
	return m, c, built
}

func invoke(t *testing.T, c *adapter.Cache, id string, in adapter.Bindings) *adapter.Result {
	t.Helper()
	a, ok := c.Get(id)
	require.True(t, ok, "adapter %s", id)
	s, err := a.Bind(nil)
	require.NoError(t, err)
	res, err := s.Invoke(ctxlog.Discard(context.Background()), in)
	require.NoError(t, err)
	return res
}

func TestDescriptors(t *testing.T) {
	_, _, built := setup(t)
	var ids []string
	for _, d := range built.Descriptors {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{
		"Text.Concat",
		"Text.Contains",
		"Text.Length",
		"Text.OnSubmit",
		"Text.Separator#get",
		"Text.Separator#set",
		"Text.Split",
	}, ids)
}

func TestSeparatorPropertyDrivesConcatAndSplit(t *testing.T) {
	m, c, _ := setup(t)

	res := invoke(t, c, "Text.Concat", adapter.Bindings{"a": cty.StringVal("graph"), "b": cty.StringVal("bridge")})
	assert.Equal(t, "graph bridge", res.Outputs[0].AsString())

	invoke(t, c, "Text.Separator#set", adapter.Bindings{"value": cty.StringVal("-")})
	assert.Equal(t, "-", m.Separator())

	res = invoke(t, c, "Text.Separator#get", nil)
	assert.Equal(t, "-", res.Outputs[0].AsString())

	res = invoke(t, c, "Text.Concat", adapter.Bindings{"a": cty.StringVal("graph")})
	assert.Equal(t, "graph-", res.Outputs[0].AsString())

	res = invoke(t, c, "Text.Split", adapter.Bindings{"s": cty.StringVal("a-b-c")})
	assert.True(t, res.Outputs[0].RawEquals(cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b"), cty.StringVal("c")})))
}

func TestLengthAndContains(t *testing.T) {
	_, c, _ := setup(t)

	res := invoke(t, c, "Text.Length", adapter.Bindings{"s": cty.StringVal("héllo")})
	assert.True(t, res.Outputs[0].RawEquals(cty.NumberIntVal(5)))

	res = invoke(t, c, "Text.Contains", adapter.Bindings{"s": cty.StringVal("graph bridge"), "sub": cty.StringVal("bri")})
	assert.True(t, res.Outputs[0].True())
}

func TestOnSubmitPassesPayloadThrough(t *testing.T) {
	_, c, _ := setup(t)
	res := invoke(t, c, "Text.OnSubmit", adapter.Bindings{"text": cty.StringVal("hello")})
	assert.Equal(t, 0, res.Selected)
	text, ok := res.Output("text")
	require.True(t, ok)
	assert.Equal(t, "hello", text.AsString())
}
