package areatree

import (
	"strings"
)

// indent is one nesting level in formatted area listings
const indent = "    "

// Format renders the tree as an indented listing, one node per line, four
// spaces per level. The root itself is not printed. Names use the resolved
// English name when PrepareTranslation has run, otherwise Georgian. Payloads
// are appended in square brackets.
func (t *AreaTree) Format() string {
	var b strings.Builder
	t.Walk(func(node *AreaTree, level int) bool {
		if level == 0 {
			return true
		}
		b.WriteString(strings.Repeat(indent, level-1))
		b.WriteString(node.Translated())
		if data := node.AdditionalData(); data != "" {
			b.WriteString(" [")
			b.WriteString(data)
			b.WriteString("]")
		}
		b.WriteString("\n")
		return true
	})
	return b.String()
}

// Leaves returns the names of all leaf nodes down to MaxDepth, in walk order
func (t *AreaTree) Leaves() []string {
	var leaves []string
	t.Walk(func(node *AreaTree, level int) bool {
		if level > 0 && node.IsLeaf() {
			leaves = append(leaves, node.NameGe)
		}
		return true
	})
	return leaves
}

// Parse builds a tree from a raw outage area string: comma-separated groups
// of "/"-delimited levels
func Parse(area string) *AreaTree {
	root := NewRoot()
	if strings.TrimSpace(area) == "" {
		return root
	}
	root.Populate(strings.Split(area, ",")...)
	return root
}
