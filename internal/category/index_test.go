package category

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/menupath"
	"github.com/vk/graphbridge/internal/schema"
)

// node is a flattened entry that go-cmp can compare without looking into
// descriptor values.
type node struct {
	Segment  string
	Icon     string
	Priority int
	Leaves   []string
	Children []node
}

func flatten(e *Entry) node {
	n := node{Segment: e.Segment, Icon: e.Icon, Priority: e.Priority}
	for _, l := range e.Leaves {
		n.Leaves = append(n.Leaves, l.ID)
	}
	for _, c := range e.Children {
		n.Children = append(n.Children, flatten(c))
	}
	return n
}

func desc(id, path string, keywords ...string) *schema.NodeDescriptor {
	p := menupath.MustParse(path)
	return &schema.NodeDescriptor{
		ID:          id,
		MenuPath:    p.String(),
		Path:        p,
		DisplayName: p.Leaf(),
		Metadata: schema.Metadata{
			Searchable:     true,
			SearchKeywords: keywords,
			Priority:       marker.DefaultPriority,
		},
	}
}

func fixture() ([]*schema.NodeDescriptor, []marker.Category) {
	hidden := desc("Debug.Secret", "Debug/Secret Node", "lerp")
	hidden.Metadata.Searchable = false
	descs := []*schema.NodeDescriptor{
		desc("Physics.Gravity#get", "Physics/Get Gravity"),
		desc("Math.Lerp", "Math/Interpolation/Lerp", "blend", "mix"),
		desc("Math.Add", "Math/Add", "plus", "sum"),
		desc("Math.Sign", "Math/Sign"),
		desc("Text.Concat", "Text/Concat", "join"),
		hidden,
	}
	cats := []marker.Category{
		{Path: "Math", Icon: "calculator", Priority: marker.Ptr(5)},
		{Path: "Math/Interpolation", Icon: "curve"},
		{Path: "Physics", Icon: "apple"},
		{Path: "Text", Priority: marker.Ptr(200)},
	}
	return descs, cats
}

func TestBuild_TreeOrderAndOverrides(t *testing.T) {
	descs, cats := fixture()
	idx := Build(descs, cats)

	want := node{
		Priority: marker.DefaultPriority,
		Children: []node{
			{Segment: "Math", Icon: "calculator", Priority: 5, Leaves: []string{"Math.Add", "Math.Sign"}, Children: []node{
				{Segment: "Interpolation", Icon: "curve", Priority: marker.DefaultPriority, Leaves: []string{"Math.Lerp"}},
			}},
			{Segment: "Debug", Priority: marker.DefaultPriority, Leaves: []string{"Debug.Secret"}},
			{Segment: "Physics", Icon: "apple", Priority: marker.DefaultPriority, Leaves: []string{"Physics.Gravity#get"}},
			{Segment: "Text", Priority: 200, Leaves: []string{"Text.Concat"}},
		},
	}
	if diff := cmp.Diff(want, flatten(idx.Root())); diff != "" {
		t.Errorf("category tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_LongestPrefixOverride(t *testing.T) {
	descs := []*schema.NodeDescriptor{desc("A.X", "A/B/C/X")}
	cats := []marker.Category{
		{Path: "A", Icon: "a", Priority: marker.Ptr(1)},
		{Path: "A/B/C", Icon: "abc", Priority: marker.Ptr(3)},
	}
	idx := Build(descs, cats)

	b, ok := idx.Lookup("A/B")
	require.True(t, ok)
	assert.Equal(t, "a", b.Icon)
	assert.Equal(t, 1, b.Priority)

	c, ok := idx.Lookup("A/B/C")
	require.True(t, ok)
	assert.Equal(t, "abc", c.Icon)
	assert.Equal(t, 3, c.Priority)
	assert.Equal(t, "A/B/C", c.Path)
}

func TestBuild_Idempotent(t *testing.T) {
	descs, cats := fixture()
	first := flatten(Build(descs, cats).Root())

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]*schema.NodeDescriptor(nil), descs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if diff := cmp.Diff(first, flatten(Build(shuffled, cats).Root())); diff != "" {
			t.Fatalf("rebuild %d differs (-first +rebuild):\n%s", i, diff)
		}
	}
}

func ids(ds []*schema.NodeDescriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	descs, cats := fixture()
	idx := Build(descs, cats)

	testCases := []struct {
		name      string
		query     string
		substring bool
		want      []string
	}{
		{name: "display name prefix", query: "le", want: []string{"Math.Lerp"}},
		{name: "keyword prefix", query: "PL", want: []string{"Math.Add"}},
		{name: "case and punctuation", query: "  Get-Grav ", want: []string{"Physics.Gravity#get"}},
		{name: "all parts must match", query: "get text", want: []string{}},
		{name: "substring", query: "ravit", substring: true, want: []string{"Physics.Gravity#get"}},
		{name: "prefix does not match inside tokens", query: "ravit", want: []string{}},
		{name: "non-searchable is excluded", query: "secret", want: []string{}},
		{name: "empty query", query: " ", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got []*schema.NodeDescriptor
			if tc.substring {
				got = idx.SearchSubstring(tc.query)
			} else {
				got = idx.Search(tc.query)
			}
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.want, ids(got))
		})
	}

	// The hidden descriptor's keyword must not surface it either.
	assert.Equal(t, []string{"Math.Lerp"}, ids(idx.Search("lerp")))
}

func TestLookupAndWalk(t *testing.T) {
	descs, cats := fixture()
	idx := Build(descs, cats)

	_, ok := idx.Lookup("Math/Missing")
	assert.False(t, ok)
	root, ok := idx.Lookup("")
	require.True(t, ok)
	assert.Same(t, idx.Root(), root)

	var visited []string
	idx.Walk(func(e *Entry, depth int) bool {
		visited = append(visited, e.Path)
		return e.Segment != "Math"
	})
	assert.Equal(t, []string{"", "Math", "Debug", "Physics", "Text"}, visited)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"set", "gravity", "2d"}, Tokenize("Set Gravity (2D)"))
	assert.Empty(t, Tokenize("--"))
}
