package taxonomy

import (
	"fmt"
	"strings"
)

// Outline renders a document as an indented plain-text listing, one technique
// per line followed by its resources.
func Outline(doc *Document) string {
	var b strings.Builder
	if doc == nil {
		return ""
	}
	fmt.Fprintf(&b, "techniques v%d\n", doc.Version)

	var walk func(nodes []*SeedNode, depth int)
	walk = func(nodes []*SeedNode, depth int) {
		indent := strings.Repeat("  ", depth)
		for _, n := range nodes {
			if n == nil {
				continue
			}
			fmt.Fprintf(&b, "%s- %s [%s]", indent, n.Title, n.ID)
			if s := deref(n.Status); s != "" {
				fmt.Fprintf(&b, " (%s)", s)
			}
			b.WriteByte('\n')
			if notes := strings.TrimSpace(deref(n.Notes)); notes != "" {
				fmt.Fprintf(&b, "%s    note: %s\n", indent, strings.ReplaceAll(notes, "\n", " "))
			}
			for _, r := range n.Resources {
				if r.Source != "" {
					fmt.Fprintf(&b, "%s    * %s (%s)\n", indent, r.URL, r.Source)
				} else {
					fmt.Fprintf(&b, "%s    * %s\n", indent, r.URL)
				}
			}
			walk(n.Children, depth+1)
		}
	}
	walk(doc.Tree, 0)
	return b.String()
}

// Stats summarizes a document
type Stats struct {
	Nodes     int
	Roots     int
	MaxDepth  int
	Resources int
}

// Summarize counts nodes, roots, resources and depth of a document
func Summarize(doc *Document) Stats {
	var s Stats
	if doc == nil {
		return s
	}
	s.Roots = len(doc.Tree)

	var walk func(nodes []*SeedNode, depth int)
	walk = func(nodes []*SeedNode, depth int) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			s.Nodes++
			s.Resources += len(n.Resources)
			if depth > s.MaxDepth {
				s.MaxDepth = depth
			}
			walk(n.Children, depth+1)
		}
	}
	walk(doc.Tree, 0)
	return s
}
