package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

const socarSelectColumns = `object_id, id, description, title, affected_customers,
	start_time, end_time, notified_customers, is_notified, type, docflow_code,
	date_changed, created, is_pending, is_deactivated, detail`

// FindSocarByObjectID returns a stored gas outage, or ErrNotFound
func (s *Store) FindSocarByObjectID(ctx context.Context, objectID int64) (*alerts.SocarAlert, error) {
	query := `SELECT ` + socarSelectColumns + ` FROM socar_alerts WHERE object_id = $1`

	var a alerts.SocarAlert
	if err := s.db.GetContext(ctx, &a, query, objectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find socar alert %d: %w", objectID, err)
	}
	return &a, nil
}

// InsertSocar stores a gas outage; known object ids are left untouched.
// It reports whether a row was written.
func (s *Store) InsertSocar(ctx context.Context, a alerts.SocarAlert) (bool, error) {
	query := `
		INSERT INTO socar_alerts (
			object_id, id, description, title, affected_customers, start_time, end_time,
			notified_customers, is_notified, type, docflow_code, date_changed, created,
			is_pending, is_deactivated, detail
		) VALUES (
			:object_id, :id, :description, :title, :affected_customers, :start_time, :end_time,
			:notified_customers, :is_notified, :type, :docflow_code, :date_changed, :created,
			:is_pending, :is_deactivated, :detail
		) ON CONFLICT (object_id) DO NOTHING`

	result, err := s.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return false, fmt.Errorf("failed to insert socar alert %d: %w", a.ObjectID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
