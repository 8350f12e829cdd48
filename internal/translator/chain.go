package translator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dpup/prefab/logging"

	"github.com/georgia-utilities/alertbot/internal/lib/places"
)

// ErrNoBackend is returned when every tier missed and no backend is set
var ErrNoBackend = errors.New("no translation backend configured")

// passthrough matches text with nothing to translate: Latin letters, digits
// and punctuation
var passthrough = regexp.MustCompile(`^[0-9a-zA-Z\-\s()":.!@#$%^&*_=+<>\[\]{},/\\]+$`)

// Observer is notified of where each translation came from
type Observer func(source string)

// Chain implements the translation lookup order
type Chain struct {
	tiers    []Tier
	backend  Backend
	observer Observer
}

// NewChain creates a translator over tiers, fastest first
func NewChain(backend Backend, tiers ...Tier) *Chain {
	return &Chain{tiers: tiers, backend: backend}
}

// WithObserver sets a callback for translation sources
func (c *Chain) WithObserver(o Observer) *Chain {
	c.observer = o
	return c
}

// Translate returns the English rendering of textGe. On failure the input is
// returned unchanged together with the error.
func (c *Chain) Translate(ctx context.Context, textGe string) (string, error) {
	key := strings.TrimSpace(textGe)
	if key == "" || passthrough.MatchString(key) {
		c.observe("passthrough")
		return textGe, nil
	}

	if en, ok := places.English(key); ok {
		c.observe("places")
		return en, nil
	}

	for i, tier := range c.tiers {
		en, found, err := tier.Lookup(ctx, key)
		if err != nil {
			logging.Warnw(ctx, "Translation tier lookup failed", "tier", tier.Name(), "error", err)
			continue
		}
		if found && en != "" {
			c.observe(tier.Name())
			c.saveTo(ctx, c.tiers[:i], key, en)
			return en, nil
		}
	}

	if c.backend == nil {
		return textGe, ErrNoBackend
	}

	en, err := c.backend.Translate(ctx, key)
	if err != nil {
		logging.Errorw(ctx, "Translation failed", "text", key, "error", err)
		return textGe, fmt.Errorf("translate %q: %w", key, err)
	}
	en = strings.TrimSpace(en)
	if en == "" {
		return textGe, fmt.Errorf("translate %q: empty result", key)
	}

	c.observe("backend")
	c.saveTo(ctx, c.tiers, key, en)
	return en, nil
}

func (c *Chain) saveTo(ctx context.Context, tiers []Tier, textGe, textEn string) {
	for _, tier := range tiers {
		if err := tier.Save(ctx, textGe, textEn); err != nil {
			logging.Warnw(ctx, "Translation tier save failed", "tier", tier.Name(), "error", err)
		}
	}
}

func (c *Chain) observe(source string) {
	if c.observer != nil {
		c.observer(source)
	}
}
