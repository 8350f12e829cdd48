package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TranslationStore is the durable translation tier
type TranslationStore struct {
	db *sqlx.DB
}

// Lookup returns the stored English text for a Georgian phrase
func (t *TranslationStore) Lookup(ctx context.Context, textGe string) (string, bool, error) {
	var textEn string
	err := t.db.GetContext(ctx, &textEn, `SELECT value_en FROM translations WHERE key_ge = $1`, textGe)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up translation: %w", err)
	}
	return textEn, true, nil
}

// Save stores a translation, replacing an older value
func (t *TranslationStore) Save(ctx context.Context, textGe, textEn string) error {
	query := `INSERT INTO translations (key_ge, value_en) VALUES ($1, $2)
		ON CONFLICT (key_ge) DO UPDATE SET value_en = EXCLUDED.value_en`
	if _, err := t.db.ExecContext(ctx, query, textGe, textEn); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}

// Name identifies the tier in logs and metrics
func (t *TranslationStore) Name() string {
	return "postgres"
}
