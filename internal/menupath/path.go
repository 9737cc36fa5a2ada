// internal/menupath/path.go
package menupath

import (
	"fmt"
	"strings"
)

// Separator splits a menu path into segments.
const Separator = "/"

// Path is the structured form of a menu path.
type Path struct {
	Segments []string
}

// Parse creates a Path by parsing its canonical string representation.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("menu path cannot be empty")
	}

	parts := strings.Split(raw, Separator)
	segments := make([]string, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			switch {
			case i == 0:
				return Path{}, fmt.Errorf("menu path %q has a leading empty segment", raw)
			case i == len(parts)-1:
				return Path{}, fmt.Errorf("menu path %q has a trailing empty segment", raw)
			default:
				return Path{}, fmt.Errorf("menu path %q contains an empty segment at position %d", raw, i)
			}
		}
		segments = append(segments, strings.TrimSpace(part))
	}
	return Path{Segments: segments}, nil
}

// MustParse is like Parse but panics on error. It is intended for paths
// known at compile time.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String serializes the Path into its canonical representation.
func (p Path) String() string {
	return strings.Join(p.Segments, Separator)
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.Segments) }

// Leaf returns the last segment.
func (p Path) Leaf() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p.Segments) <= 1 {
		return Path{}
	}
	return Path{Segments: append([]string(nil), p.Segments[:len(p.Segments)-1]...)}
}

// WithLeaf returns a copy of the path whose last segment is replaced.
func (p Path) WithLeaf(leaf string) Path {
	segs := append([]string(nil), p.Segments...)
	if len(segs) == 0 {
		return Path{Segments: []string{leaf}}
	}
	segs[len(segs)-1] = leaf
	return Path{Segments: segs}
}

// HasPrefix reports whether prefix matches the leading segments of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.Segments) > len(p.Segments) {
		return false
	}
	for i, seg := range prefix.Segments {
		if p.Segments[i] != seg {
			return false
		}
	}
	return true
}

// Equal checks for segment-wise equality.
func (p Path) Equal(other Path) bool {
	return len(p.Segments) == len(other.Segments) && p.HasPrefix(other)
}
