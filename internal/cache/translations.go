package cache

import (
	"context"
	"time"
)

const translationPrefix = "translation:"

// TranslationCache exposes the in-memory Cache as a translation tier
type TranslationCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewTranslationCache creates a translation tier backed by c
func NewTranslationCache(c *Cache, ttl time.Duration) *TranslationCache {
	return &TranslationCache{cache: c, ttl: ttl}
}

// Lookup returns the cached English text for a Georgian phrase
func (t *TranslationCache) Lookup(_ context.Context, textGe string) (string, bool, error) {
	var textEn string
	found, err := t.cache.Get(translationPrefix+textGe, &textEn)
	if err != nil || !found {
		return "", false, err
	}
	return textEn, true, nil
}

// Save caches a translation
func (t *TranslationCache) Save(_ context.Context, textGe, textEn string) error {
	return t.cache.Set(translationPrefix+textGe, textEn, t.ttl, "translation")
}

// Name identifies the tier in logs and metrics
func (t *TranslationCache) Name() string {
	return "memory"
}
