// Package category arranges node descriptors into the editor's menu tree and
// maintains a keyword index for search.
//
// An Index is built in one pass from a descriptor set and a list of category
// markers, and is read-only afterwards. Building from the same inputs always
// yields a structurally identical tree.
package category

import (
	"sort"
	"strings"
	"unicode"

	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/menupath"
	"github.com/vk/graphbridge/internal/schema"
)

// Entry is one category in the menu tree.
type Entry struct {
	Segment  string
	Path     string
	Icon     string
	Priority int
	// Children are ordered by priority, then segment name.
	Children []*Entry
	// Leaves are ordered by priority, display name, then descriptor ID.
	Leaves []*schema.NodeDescriptor
}

// Child finds a direct child by segment name.
func (e *Entry) Child(segment string) (*Entry, bool) {
	for _, c := range e.Children {
		if c.Segment == segment {
			return c, true
		}
	}
	return nil, false
}

// Index is the category tree plus the inverted keyword index.
type Index struct {
	root   *Entry
	tokens map[string][]*schema.NodeDescriptor
	// sortedTokens supports prefix and substring scans.
	sortedTokens []string
}

type override struct {
	path     menupath.Path
	icon     string
	priority int
}

// Build creates an index from descriptors. The registry rejects category
// markers with an invalid path when they are bound; any that reach Build
// anyway are ignored.
func Build(descs []*schema.NodeDescriptor, cats []marker.Category) *Index {
	overrides := make([]override, 0, len(cats))
	for _, c := range cats {
		p, err := menupath.Parse(c.Path)
		if err != nil {
			continue
		}
		overrides = append(overrides, override{path: p, icon: c.Icon, priority: c.EffectivePriority()})
	}
	// Longer prefixes first; equal paths keep the first declaration.
	sort.SliceStable(overrides, func(i, j int) bool { return overrides[i].path.Len() > overrides[j].path.Len() })

	idx := &Index{
		root:   &Entry{Priority: marker.DefaultPriority},
		tokens: make(map[string][]*schema.NodeDescriptor),
	}

	for _, d := range descs {
		entry := idx.root
		parent := d.Path.Parent()
		for i, seg := range parent.Segments {
			child, ok := entry.Child(seg)
			if !ok {
				prefix := menupath.Path{Segments: parent.Segments[:i+1]}
				child = &Entry{Segment: seg, Path: prefix.String(), Priority: marker.DefaultPriority}
				if o, ok := longestMatch(overrides, prefix); ok {
					child.Icon = o.icon
					child.Priority = o.priority
				}
				entry.Children = append(entry.Children, child)
			}
			entry = child
		}
		entry.Leaves = append(entry.Leaves, d)

		if d.Metadata.Searchable {
			idx.addTokens(d)
		}
	}

	sortEntry(idx.root)
	for tok, list := range idx.tokens {
		sortDescriptors(list)
		idx.tokens[tok] = list
		idx.sortedTokens = append(idx.sortedTokens, tok)
	}
	sort.Strings(idx.sortedTokens)
	return idx
}

func longestMatch(overrides []override, p menupath.Path) (override, bool) {
	for _, o := range overrides {
		if p.HasPrefix(o.path) {
			return o, true
		}
	}
	return override{}, false
}

func (idx *Index) addTokens(d *schema.NodeDescriptor) {
	seen := make(map[string]bool)
	add := func(text string) {
		for _, tok := range Tokenize(text) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			idx.tokens[tok] = append(idx.tokens[tok], d)
		}
	}
	add(d.DisplayName)
	for _, kw := range d.Metadata.SearchKeywords {
		add(kw)
	}
}

func sortEntry(e *Entry) {
	sort.SliceStable(e.Children, func(i, j int) bool {
		a, b := e.Children[i], e.Children[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Segment < b.Segment
	})
	sortDescriptors(e.Leaves)
	for _, c := range e.Children {
		sortEntry(c)
	}
}

func sortDescriptors(ds []*schema.NodeDescriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Metadata.Priority != b.Metadata.Priority {
			return a.Metadata.Priority < b.Metadata.Priority
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
}

// Tokenize lowercases text and splits it on everything that is not a letter
// or a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Root returns the unnamed root entry.
func (idx *Index) Root() *Entry { return idx.root }

// Lookup finds the category entry at a menu path.
func (idx *Index) Lookup(path string) (*Entry, bool) {
	if path == "" {
		return idx.root, true
	}
	p, err := menupath.Parse(path)
	if err != nil {
		return nil, false
	}
	entry := idx.root
	for _, seg := range p.Segments {
		child, ok := entry.Child(seg)
		if !ok {
			return nil, false
		}
		entry = child
	}
	return entry, true
}

// Walk visits every entry depth-first in menu order. Returning false from fn
// skips the entry's children.
func (idx *Index) Walk(fn func(e *Entry, depth int) bool) {
	var walk func(e *Entry, depth int)
	walk = func(e *Entry, depth int) {
		if !fn(e, depth) {
			return
		}
		for _, c := range e.Children {
			walk(c, depth+1)
		}
	}
	walk(idx.root, 0)
}

// Search returns descriptors having a token that starts with each token of
// query. Results are in leaf order without duplicates.
func (idx *Index) Search(query string) []*schema.NodeDescriptor {
	return idx.match(query, true)
}

// SearchSubstring is Search with substring instead of prefix matching.
func (idx *Index) SearchSubstring(query string) []*schema.NodeDescriptor {
	return idx.match(query, false)
}

func (idx *Index) match(query string, prefix bool) []*schema.NodeDescriptor {
	parts := Tokenize(query)
	if len(parts) == 0 {
		return nil
	}

	var result map[string]*schema.NodeDescriptor
	for _, part := range parts {
		hits := make(map[string]*schema.NodeDescriptor)
		for _, tok := range idx.candidates(part, prefix) {
			for _, d := range idx.tokens[tok] {
				hits[d.ID] = d
			}
		}
		if result == nil {
			result = hits
			continue
		}
		for id := range result {
			if _, ok := hits[id]; !ok {
				delete(result, id)
			}
		}
	}

	out := make([]*schema.NodeDescriptor, 0, len(result))
	for _, d := range result {
		out = append(out, d)
	}
	sortDescriptors(out)
	return out
}

func (idx *Index) candidates(part string, prefix bool) []string {
	var out []string
	if prefix {
		for i := sort.SearchStrings(idx.sortedTokens, part); i < len(idx.sortedTokens); i++ {
			if !strings.HasPrefix(idx.sortedTokens[i], part) {
				break
			}
			out = append(out, idx.sortedTokens[i])
		}
		return out
	}
	for _, tok := range idx.sortedTokens {
		if strings.Contains(tok, part) {
			out = append(out, tok)
		}
	}
	return out
}
