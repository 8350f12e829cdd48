package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS original_alerts (
		task_id               BIGINT PRIMARY KEY,
		task_name             TEXT NOT NULL DEFAULT '',
		task_note             TEXT NOT NULL DEFAULT '',
		sc_effected_customers TEXT NOT NULL DEFAULT '',
		disconnection_area    TEXT NOT NULL DEFAULT '',
		region_name           TEXT NOT NULL DEFAULT '',
		sc_name               TEXT NOT NULL DEFAULT '',
		disconnection_date    TEXT NOT NULL DEFAULT '',
		reconnection_date     TEXT NOT NULL DEFAULT '',
		dif                   TEXT NOT NULL DEFAULT '',
		task_type             TEXT NOT NULL DEFAULT '',
		start_time            TIMESTAMPTZ,
		end_time              TIMESTAMPTZ,
		content_hash          TEXT NOT NULL DEFAULT '',
		posts                 JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_date          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_date          TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS original_alerts_start_time_idx ON original_alerts (start_time)`,
	`CREATE TABLE IF NOT EXISTS socar_alerts (
		object_id          BIGINT PRIMARY KEY,
		id                 TEXT NOT NULL DEFAULT '',
		description        TEXT NOT NULL DEFAULT '',
		title              TEXT NOT NULL DEFAULT '',
		affected_customers INTEGER NOT NULL DEFAULT 0,
		start_time         TIMESTAMPTZ,
		end_time           TIMESTAMPTZ,
		notified_customers INTEGER NOT NULL DEFAULT 0,
		is_notified        BOOLEAN NOT NULL DEFAULT FALSE,
		type               TEXT NOT NULL DEFAULT '',
		docflow_code       TEXT NOT NULL DEFAULT '',
		date_changed       BOOLEAN NOT NULL DEFAULT FALSE,
		created            TIMESTAMPTZ,
		is_pending         BOOLEAN NOT NULL DEFAULT FALSE,
		is_deactivated     BOOLEAN NOT NULL DEFAULT FALSE,
		detail             JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE TABLE IF NOT EXISTS translations (
		key_ge     TEXT PRIMARY KEY,
		value_en   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Store persists alerts, gas outages and translations in Postgres
type Store struct {
	db *sqlx.DB
}

// New wraps an open database
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Translations returns the translation tier backed by this store
func (s *Store) Translations() *TranslationStore {
	return &TranslationStore{db: s.db}
}

func execRequireRows(result sql.Result, err, notFoundErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
