package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new event and fills in its id and created_at.
func (r *Repository) Insert(ctx context.Context, ev Event) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (name, event_date, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, ev.Name, ev.Date, ev.StartTime, ev.EndTime, ev.Location)
	if err := row.Scan(&ev.ID, &ev.CreatedAt); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Get returns a single event by id, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, event_date, start_time, end_time, location, created_at
		FROM events WHERE id = $1
	`, id)
	var ev Event
	if err := row.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.StartTime, &ev.EndTime, &ev.Location, &ev.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// List returns events ordered by date and start time, optionally bounded to a
// date window, with limit/offset paging.
func (r *Repository) List(ctx context.Context, from, to *time.Time, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, name, event_date, start_time, end_time, location, created_at FROM events`
	args := []any{}
	clauses := []string{}
	if from != nil {
		clauses = append(clauses, "event_date >= $"+itoa(len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		clauses = append(clauses, "event_date <= $"+itoa(len(args)+1))
		args = append(args, *to)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY event_date DESC, start_time DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.StartTime, &ev.EndTime, &ev.Location, &ev.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

// EndedSince returns events whose day is within the lookback window, for the
// absentee sweep. Callers still classify each event before sweeping it.
func (r *Repository) EndedSince(ctx context.Context, lookback time.Duration, now time.Time) ([]Event, error) {
	oldest := now.Add(-lookback)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, event_date, start_time, end_time, location, created_at
		FROM events
		WHERE event_date >= $1 AND event_date <= $2
		ORDER BY event_date, start_time
	`, oldest.AddDate(0, 0, -1), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.StartTime, &ev.EndTime, &ev.Location, &ev.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

// Update rewrites an event's mutable fields.
func (r *Repository) Update(ctx context.Context, ev Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET name = $2, event_date = $3, start_time = $4, end_time = $5, location = $6
		WHERE id = $1
	`, ev.ID, ev.Name, ev.Date, ev.StartTime, ev.EndTime, ev.Location)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes an event together with its registrations and attendance.
// The three deletes run inside one transaction; a failure rolls all back.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE event_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_registrations WHERE event_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
