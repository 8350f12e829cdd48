package areatree

import (
	"context"
)

// RootName is the conventional name of a tree root. Roots are structural
// and never printed.
const RootName = "Root"

// MaxDepth bounds every recursive walk over a tree. Outage feeds sometimes
// contain deeply nested garbage and nothing useful lives below this level.
const MaxDepth = 5

// Translator resolves a Georgian area name into English
type Translator interface {
	Translate(ctx context.Context, textGe string) (string, error)
}

// Payload is the value-merging strategy attached to nodes of a value-carrying
// tree. The tree owns structure; the payload owns only how values combine.
type Payload interface {
	// Merge folds incoming into the receiver
	Merge(incoming Payload)

	// String renders the payload next to the area name
	String() string

	// Clone returns an independent copy
	Clone() Payload
}

// NewAreaTree is implemented in tree.go
