package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/vk/graphbridge/internal/bridge"
	"github.com/vk/graphbridge/internal/category"
	"github.com/vk/graphbridge/internal/schema"
)

// WriteReport prints every error of a build report, one per line.
func WriteReport(w io.Writer, r *bridge.Report) {
	for _, e := range r.Discovery {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, e := range r.Validation {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	if r.Emission != nil {
		for _, line := range strings.Split(r.Emission.Error(), "\n") {
			fmt.Fprintf(w, "error: %s\n", line)
		}
	}
	fmt.Fprintf(w, "%d descriptors, %d adapters, %d errors\n",
		r.Descriptors, r.Adapters, len(r.Discovery)+len(r.Validation)+boolToInt(r.Emission != nil))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteTree prints the category tree, two spaces of indent per level.
func WriteTree(w io.Writer, idx *category.Index) {
	idx.Walk(func(e *category.Entry, depth int) bool {
		leafIndent := ""
		if depth > 0 {
			indent := strings.Repeat("  ", depth-1)
			fmt.Fprintf(w, "%s%s/\n", indent, e.Segment)
			leafIndent = indent + "  "
		}
		for _, d := range e.Leaves {
			fmt.Fprintf(w, "%s%s (%s)\n", leafIndent, d.DisplayName, d.ID)
		}
		return true
	})
}

// WriteDescriptors prints one line per descriptor.
func WriteDescriptors(w io.Writer, descs []*schema.NodeDescriptor) {
	for _, d := range descs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.MenuPath, d.Kind)
	}
}
