package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *sql.DB and *sql.Tx so snapshot loads can run
// inside the check-in transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository persists registrations, attendance and scan audit rows.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// isUniqueViolation reports a Postgres unique-constraint error. It is the
// authoritative duplicate-check-in signal under concurrent scans.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func registered(ctx context.Context, q querier, studentCode string, eventID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_registrations
		WHERE student_code = $1 AND event_id = $2
	`, studentCode, eventID).Scan(&n)
	return n > 0, err
}

func record(ctx context.Context, q querier, studentCode string, eventID int64) (*Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, student_code, event_id, check_in_time, check_out_time, status, marked_by
		FROM attendance
		WHERE student_code = $1 AND event_id = $2
	`, studentCode, eventID)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentCode, &rec.EventID, &rec.CheckInTime, &rec.CheckOutTime, &rec.Status, &rec.MarkedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetRecord returns the attendance row for one (student, event), nil if unmarked.
func (r *Repository) GetRecord(ctx context.Context, studentCode string, eventID int64) (*Record, error) {
	return record(ctx, r.db, studentCode, eventID)
}

// Register creates a registration; a duplicate maps to ErrAlreadyRegistered.
func (r *Repository) Register(ctx context.Context, studentCode string, eventID int64) (Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO event_registrations (student_code, event_id)
		VALUES ($1, $2)
		RETURNING id, registered_at
	`, studentCode, eventID)
	reg := Registration{StudentCode: studentCode, EventID: eventID}
	if err := row.Scan(&reg.ID, &reg.RegisteredAt); err != nil {
		if isUniqueViolation(err) {
			return Registration{}, ErrAlreadyRegistered
		}
		return Registration{}, err
	}
	return reg, nil
}

// RegisteredEventIDs lists the events a student is signed up for, most recent
// first. Used for the diagnostic display when a scan hits the wrong event.
func (r *Repository) RegisteredEventIDs(ctx context.Context, studentCode string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id FROM event_registrations
		WHERE student_code = $1
		ORDER BY registered_at DESC
	`, studentCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Entry is an attendance row joined with the student it belongs to.
type Entry struct {
	StudentCode  string     `json:"student_code"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Course       string     `json:"course"`
	YearLevel    int        `json:"year_level"`
	Status       Status     `json:"status"`
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
}

// EventEntries returns the joined attendance sheet for an event, ordered by
// student code.
func (r *Repository) EventEntries(ctx context.Context, eventID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.student_code, s.first_name, s.last_name, s.course, s.year_level,
		       a.status, a.check_in_time, a.check_out_time
		FROM attendance a
		JOIN students s ON s.code = a.student_code
		WHERE a.event_id = $1
		ORDER BY a.student_code
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StudentCode, &e.FirstName, &e.LastName, &e.Course, &e.YearLevel,
			&e.Status, &e.CheckInTime, &e.CheckOutTime); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventRegistrations returns the registration list for an event joined with
// student names.
func (r *Repository) EventRegistrations(ctx context.Context, eventID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT er.student_code, s.first_name, s.last_name, s.course, s.year_level
		FROM event_registrations er
		JOIN students s ON s.code = er.student_code
		WHERE er.event_id = $1
		ORDER BY er.student_code
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StudentCode, &e.FirstName, &e.LastName, &e.Course, &e.YearLevel); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// MarkAbsentees creates absent rows for every registration under the event
// that has no attendance row. Idempotent: re-running inserts nothing new.
func (r *Repository) MarkAbsentees(ctx context.Context, eventID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (student_code, event_id, status)
		SELECT er.student_code, er.event_id, 'absent'
		FROM event_registrations er
		WHERE er.event_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM attendance a
			WHERE a.student_code = er.student_code AND a.event_id = er.event_id
		  )
	`, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AuditRecord captures who did what during a scan, written by the worker.
type AuditRecord struct {
	ID          string    `json:"id"`
	Staff       string    `json:"staff"`
	Action      string    `json:"action"`
	StudentCode string    `json:"student_code"`
	EventID     int64     `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// InsertAudit stores a scan audit record.
func (r *Repository) InsertAudit(ctx context.Context, rec AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_audit (id, staff, action, student_code, event_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.Staff, rec.Action, rec.StudentCode, rec.EventID, rec.OccurredAt)
	return err
}

// CountByStatus returns attendance totals per status for an event.
func (r *Repository) CountByStatus(ctx context.Context, eventID int64) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM attendance WHERE event_id = $1 GROUP BY status
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[Status]int)
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// RegistrationsSince counts sign-ups recorded at or after the cutoff, for the dashboard.
func (r *Repository) RegistrationsSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_registrations WHERE registered_at >= $1
	`, cutoff).Scan(&n)
	return n, err
}

// CheckInsSince counts check-ins recorded at or after the cutoff, for the dashboard.
func (r *Repository) CheckInsSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance WHERE check_in_time >= $1
	`, cutoff).Scan(&n)
	return n, err
}
