package areatree

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/georgia-utilities/alertbot/internal/lib/places"
)

// AreaTree is an ordered hierarchy of area names parsed from outage text.
// Children are always kept in Georgian collation order.
type AreaTree struct {
	NameGe string
	NameEn string

	payload  Payload
	children []*AreaTree
	index    map[string]*AreaTree
}

// collators are pooled because a collate.Collator keeps internal buffers
// and must not be shared between goroutines.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.MustParse("ka"))
	},
}

func compareNames(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}

// quoteReplacer strips the quotation variants seen in feed text
var quoteReplacer = strings.NewReplacer(
	`"`, "", "'", "", "`", "", "_", "",
	"“", "", "”", "", "„", "", "«", "", "»", "", "‘", "", "’", "",
)

// NewAreaTree creates an empty tree node
func NewAreaTree(name string) *AreaTree {
	return &AreaTree{
		NameGe: name,
		index:  make(map[string]*AreaTree),
	}
}

// NewRoot creates an empty root node
func NewRoot() *AreaTree {
	return NewAreaTree(RootName)
}

// Add inserts subtree under name, keeping children sorted. An existing
// child with the same name is replaced.
func (t *AreaTree) Add(name string, subtree *AreaTree) {
	if t.index == nil {
		t.index = make(map[string]*AreaTree)
	}

	if _, exists := t.index[name]; exists {
		for i, child := range t.children {
			if child.NameGe == name {
				t.children[i] = subtree
				break
			}
		}
		t.index[name] = subtree
		return
	}

	pos := sort.Search(len(t.children), func(i int) bool {
		return compareNames(t.children[i].NameGe, name) > 0
	})
	t.children = append(t.children, nil)
	copy(t.children[pos+1:], t.children[pos:])
	t.children[pos] = subtree
	t.index[name] = subtree
}

// Get returns the direct child called name
func (t *AreaTree) Get(name string) (*AreaTree, bool) {
	child, ok := t.index[name]
	return child, ok
}

// Has reports whether a direct child called name exists
func (t *AreaTree) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Children returns the direct children in sorted order
func (t *AreaTree) Children() []*AreaTree {
	out := make([]*AreaTree, len(t.children))
	copy(out, t.children)
	return out
}

// Names returns the names of the direct children in sorted order
func (t *AreaTree) Names() []string {
	names := make([]string, 0, len(t.children))
	for _, child := range t.children {
		names = append(names, child.NameGe)
	}
	return names
}

// IsLeaf reports whether the node has no children
func (t *AreaTree) IsLeaf() bool {
	return len(t.children) == 0
}

// Populate inserts "A / B / C" chains. Each segment is trimmed and stripped
// of quotes; empty segments are skipped. Inserting the same chain twice is
// a no-op.
func (t *AreaTree) Populate(fragments ...string) {
	for _, fragment := range fragments {
		node := t
		for _, segment := range strings.Split(fragment, "/") {
			name := CleanSegment(segment)
			if name == "" {
				continue
			}

			child, ok := node.Get(name)
			if !ok {
				child = node.newChild(name)
				node.Add(name, child)
			}
			node = child
		}
	}
}

// newChild creates a child carrying a copy of the parent's payload strategy
func (t *AreaTree) newChild(name string) *AreaTree {
	child := NewAreaTree(name)
	if t.payload != nil {
		child.payload = t.payload.Clone()
	}
	return child
}

// CleanSegment trims a single area segment and removes quotation marks
func CleanSegment(segment string) string {
	return strings.TrimSpace(quoteReplacer.Replace(strings.TrimSpace(segment)))
}

// Merge unions other into t. Children present on both sides are merged
// recursively; the rest are attached as they are, so other must not be
// modified afterwards.
func (t *AreaTree) Merge(other *AreaTree) {
	if other == nil || other == t {
		return
	}

	t.mergePayload(other.payload)

	for _, child := range other.children {
		if existing, ok := t.Get(child.NameGe); ok {
			existing.Merge(child)
			continue
		}
		t.Add(child.NameGe, child)
	}
}

func (t *AreaTree) mergePayload(incoming Payload) {
	if incoming == nil {
		return
	}
	if t.payload == nil {
		t.payload = incoming.Clone()
		return
	}
	t.payload.Merge(incoming)
}

// Count returns the number of descendants
func (t *AreaTree) Count() int {
	count := len(t.children)
	for _, child := range t.children {
		count += child.Count()
	}
	return count
}

// AdditionalData renders the node payload, or "" for plain trees
func (t *AreaTree) AdditionalData() string {
	if t.payload == nil {
		return ""
	}
	return t.payload.String()
}

// Payload returns the node payload, nil for plain trees
func (t *AreaTree) Payload() Payload {
	return t.payload
}

// Translated returns the resolved English name, falling back to Georgian
func (t *AreaTree) Translated() string {
	if t.NameEn != "" {
		return t.NameEn
	}
	return t.NameGe
}

// Resolve returns the English name of the node, consulting the fixed place
// table before the translator. Successful results are kept on the node.
// Translator failures return the Georgian name and leave NameEn unset.
func (t *AreaTree) Resolve(ctx context.Context, translator Translator) string {
	if t.NameEn != "" {
		return t.NameEn
	}

	if en, ok := places.English(t.NameGe); ok {
		t.NameEn = en
		return en
	}

	if translator == nil {
		return t.NameGe
	}

	en, err := translator.Translate(ctx, t.NameGe)
	if err != nil || en == "" {
		return t.NameGe
	}

	t.NameEn = en
	return en
}

// PrepareTranslation resolves every node of the subtree down to MaxDepth.
// The root name is structural and is not translated.
func (t *AreaTree) PrepareTranslation(ctx context.Context, translator Translator) {
	t.Walk(func(node *AreaTree, level int) bool {
		if ctx.Err() != nil {
			return false
		}
		if level > 0 {
			node.Resolve(ctx, translator)
		}
		return true
	})
}

// Walk visits the tree depth-first in sorted order, the receiver at level 0.
// Returning false from fn skips that node's children. Nodes deeper than
// MaxDepth are never visited.
func (t *AreaTree) Walk(fn func(node *AreaTree, level int) bool) {
	t.walk(fn, 0)
}

func (t *AreaTree) walk(fn func(node *AreaTree, level int) bool, level int) {
	if level > MaxDepth {
		return
	}
	if !fn(t, level) {
		return
	}
	for _, child := range t.children {
		child.walk(fn, level+1)
	}
}

// Clone deep-copies the tree, payloads included
func (t *AreaTree) Clone() *AreaTree {
	return t.cloneWith(nil)
}

func (t *AreaTree) cloneWith(stamp func() Payload) *AreaTree {
	out := NewAreaTree(t.NameGe)
	out.NameEn = t.NameEn
	switch {
	case stamp != nil:
		out.payload = stamp()
	case t.payload != nil:
		out.payload = t.payload.Clone()
	}

	out.children = make([]*AreaTree, 0, len(t.children))
	for _, child := range t.children {
		c := child.cloneWith(stamp)
		out.children = append(out.children, c)
		out.index[c.NameGe] = c
	}
	return out
}
