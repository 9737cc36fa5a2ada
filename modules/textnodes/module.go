package textnodes

import (
	"strings"
	"sync"

	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Owner is the owner name of every member of this module.
const Owner = "Text"

// Module implements the registry.Module interface for this package. Its
// separator is shared by every Concat and Split invocation.
type Module struct {
	mu        sync.RWMutex
	separator string
}

// Separator returns the current separator.
func (m *Module) Separator() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.separator
}

// SetSeparator replaces the separator.
func (m *Module) SetSeparator(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.separator = s
}

// Concat joins a and b with the current separator.
func (m *Module) Concat(a, b string) string {
	return a + m.Separator() + b
}

// Split cuts s around every occurrence of the current separator. An empty
// separator splits into characters.
func (m *Module) Split(s string) []string {
	return strings.Split(s, m.Separator())
}

// Length returns the number of characters in s.
func Length(s string) int {
	return len([]rune(s))
}

// Contains reports whether sub is within s.
func Contains(s, sub string) bool {
	return strings.Contains(s, sub)
}

// Register registers the module's members with the registry.
func (m *Module) Register(r *registry.Registry) {
	pure := marker.Ptr(false)
	str := valuetype.String

	r.RegisterCategory(Owner, marker.Category{Path: "Text", Icon: "type", Priority: marker.Ptr(20)})

	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Concat",
		Params: []registry.Param{{Name: "a", Type: str}, {Name: "b", Type: str}},
		Return: str,
		Fn:     m.Concat,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Text/Concat", Flow: pure, SearchKeywords: []string{"join", "append"}},
			marker.Input{Param: "b", Default: marker.Ptr(cty.StringVal(""))},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner:   Owner,
		Name:    "Split",
		Params:  []registry.Param{{Name: "s", Type: str}},
		Return:  valuetype.List(str),
		Fn:      m.Split,
		Markers: []marker.Marker{marker.Node{MenuPath: "Text/Split", Flow: pure, SearchKeywords: []string{"tokenize"}}},
	})
	r.RegisterMethod(&registry.Method{
		Owner:   Owner,
		Name:    "Length",
		Params:  []registry.Param{{Name: "s", Type: str}},
		Return:  valuetype.Int,
		Fn:      Length,
		Markers: []marker.Marker{marker.Node{MenuPath: "Text/Length", Flow: pure, SearchKeywords: []string{"count", "size"}}},
	})
	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Contains",
		Params: []registry.Param{{Name: "s", Type: str}, {Name: "sub", Type: str}},
		Return: valuetype.Bool,
		Fn:     Contains,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Text/Contains", Flow: pure, SearchKeywords: []string{"find", "search"}},
			marker.Input{Param: "sub", DisplayName: "Substring"},
		},
	})
	r.RegisterProperty(&registry.Property{
		Owner:   Owner,
		Name:    "Separator",
		Type:    str,
		Get:     m.Separator,
		Set:     m.SetSeparator,
		Markers: []marker.Marker{marker.Property{MenuPath: "Text/Separator", Tooltip: "Separator used by Concat and Split."}},
	})
	r.RegisterEvent(&registry.Event{
		Owner:  Owner,
		Name:   "OnSubmit",
		Params: []registry.Param{{Name: "text", Type: str}},
		Markers: []marker.Marker{
			marker.Event{MenuPath: "Text/Events/On Submit", Networked: true},
			marker.Output{Param: "text", DisplayName: "Text"},
		},
	})
}
