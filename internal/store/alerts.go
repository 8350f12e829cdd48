package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

const alertSelectColumns = `task_id, task_name, task_note, sc_effected_customers,
	disconnection_area, region_name, sc_name, disconnection_date, reconnection_date,
	dif, task_type, start_time, end_time, content_hash, posts, created_date, deleted_date`

// postList is the JSONB posts column
type postList []alerts.Post

// Scan implements sql.Scanner
func (p *postList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into posts", src)
	}
}

// Value implements driver.Valuer
func (p postList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type alertRow struct {
	alerts.Alert
	StartTime   *time.Time `db:"start_time"`
	EndTime     *time.Time `db:"end_time"`
	ContentHash string     `db:"content_hash"`
	Posts       postList   `db:"posts"`
	CreatedDate *time.Time `db:"created_date"`
	DeletedDate *time.Time `db:"deleted_date"`
}

func (r alertRow) record() alerts.Record {
	return alerts.Record{
		Alert:       r.Alert,
		ContentHash: r.ContentHash,
		Posts:       []alerts.Post(r.Posts),
		CreatedDate: r.CreatedDate,
		DeletedDate: r.DeletedDate,
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func rowFor(rec alerts.Record) alertRow {
	return alertRow{
		Alert:       rec.Alert,
		StartTime:   timeOrNil(rec.Start()),
		EndTime:     timeOrNil(rec.End()),
		ContentHash: rec.ContentHash,
		Posts:       postList(rec.Posts),
	}
}

// FindByTaskID returns the stored alert, or ErrNotFound
func (s *Store) FindByTaskID(ctx context.Context, taskID int64) (*alerts.Record, error) {
	query := `SELECT ` + alertSelectColumns + ` FROM original_alerts WHERE task_id = $1`

	var row alertRow
	if err := s.db.GetContext(ctx, &row, query, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find alert %d: %w", taskID, err)
	}
	rec := row.record()
	return &rec, nil
}

// Insert stores a new alert
func (s *Store) Insert(ctx context.Context, rec alerts.Record) error {
	query := `
		INSERT INTO original_alerts (
			task_id, task_name, task_note, sc_effected_customers, disconnection_area,
			region_name, sc_name, disconnection_date, reconnection_date, dif, task_type,
			start_time, end_time, content_hash, posts
		) VALUES (
			:task_id, :task_name, :task_note, :sc_effected_customers, :disconnection_area,
			:region_name, :sc_name, :disconnection_date, :reconnection_date, :dif, :task_type,
			:start_time, :end_time, :content_hash, :posts
		)`

	if _, err := s.db.NamedExecContext(ctx, query, rowFor(rec)); err != nil {
		return fmt.Errorf("failed to insert alert %d: %w", rec.TaskID, err)
	}
	return nil
}

// Update overwrites the alert fields and clears a deletion mark. Posts are
// kept.
func (s *Store) Update(ctx context.Context, a alerts.Alert, contentHash string) error {
	query := `
		UPDATE original_alerts SET
			task_name = :task_name, task_note = :task_note,
			sc_effected_customers = :sc_effected_customers,
			disconnection_area = :disconnection_area, region_name = :region_name,
			sc_name = :sc_name, disconnection_date = :disconnection_date,
			reconnection_date = :reconnection_date, dif = :dif, task_type = :task_type,
			start_time = :start_time, end_time = :end_time,
			content_hash = :content_hash, deleted_date = NULL
		WHERE task_id = :task_id`

	result, err := s.db.NamedExecContext(ctx, query, rowFor(alerts.Record{Alert: a, ContentHash: contentHash}))
	if err := execRequireRows(result, err, ErrNotFound); err != nil {
		return fmt.Errorf("failed to update alert %d: %w", a.TaskID, err)
	}
	return nil
}

// AddPost appends a published post to the alert
func (s *Store) AddPost(ctx context.Context, taskID int64, post alerts.Post) error {
	payload, err := json.Marshal([]alerts.Post{post})
	if err != nil {
		return err
	}

	query := `UPDATE original_alerts SET posts = COALESCE(posts, '[]'::jsonb) || $2::jsonb WHERE task_id = $1`
	result, err := s.db.ExecContext(ctx, query, taskID, string(payload))
	if err := execRequireRows(result, err, ErrNotFound); err != nil {
		return fmt.Errorf("failed to add post to alert %d: %w", taskID, err)
	}
	return nil
}

// MarkDeleted records when the feed stopped listing the alert
func (s *Store) MarkDeleted(ctx context.Context, taskID int64, at time.Time) error {
	query := `UPDATE original_alerts SET deleted_date = $2 WHERE task_id = $1`
	result, err := s.db.ExecContext(ctx, query, taskID, at)
	if err := execRequireRows(result, err, ErrNotFound); err != nil {
		return fmt.Errorf("failed to mark alert %d deleted: %w", taskID, err)
	}
	return nil
}

// FindBetween returns alerts starting in [from, to), deleted ones included,
// ordered by start
func (s *Store) FindBetween(ctx context.Context, from, to time.Time) ([]alerts.Record, error) {
	query := `SELECT ` + alertSelectColumns + ` FROM original_alerts
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time, task_id`
	return s.selectRecords(ctx, query, from, to)
}

// FindActiveFuture returns undeleted alerts that have not ended by now
func (s *Store) FindActiveFuture(ctx context.Context, now time.Time) ([]alerts.Record, error) {
	query := `SELECT ` + alertSelectColumns + ` FROM original_alerts
		WHERE deleted_date IS NULL AND end_time >= $1
		ORDER BY start_time, task_id`
	return s.selectRecords(ctx, query, now)
}

// FindPosted returns undeleted alerts with at least one post that have not
// ended by now
func (s *Store) FindPosted(ctx context.Context, now time.Time) ([]alerts.Record, error) {
	query := `SELECT ` + alertSelectColumns + ` FROM original_alerts
		WHERE deleted_date IS NULL AND end_time >= $1 AND jsonb_array_length(posts) > 0
		ORDER BY start_time, task_id`
	return s.selectRecords(ctx, query, now)
}

func (s *Store) selectRecords(ctx context.Context, query string, args ...any) ([]alerts.Record, error) {
	var rows []alertRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	out := make([]alerts.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}
