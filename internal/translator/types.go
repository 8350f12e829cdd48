package translator

import (
	"context"
)

// Tier is a lookaside store of Georgian to English translations
type Tier interface {
	Lookup(ctx context.Context, textGe string) (string, bool, error)
	Save(ctx context.Context, textGe, textEn string) error
	Name() string
}

// Backend produces fresh translations; it is consulted after every tier missed
type Backend interface {
	Translate(ctx context.Context, textGe string) (string, error)
}

// Chain resolves phrases through the fixed place table, the tiers in order
// and finally the backend, writing results back to the tiers that missed.
// It satisfies areatree.Translator and alerts.Translator.
// NewChain is implemented in chain.go
