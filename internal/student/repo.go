package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrExists reports an insert that collided with an existing code or QR payload.
var ErrExists = errors.New("student already exists")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const cols = `id, code, qr_code, first_name, last_name, course, year_level, photo_url, created_at`

func scan(row interface{ Scan(...any) error }, s *Student) error {
	return row.Scan(&s.ID, &s.Code, &s.QRCode, &s.FirstName, &s.LastName, &s.Course, &s.YearLevel, &s.PhotoURL, &s.CreatedAt)
}

// Insert writes a new student. QRCode defaults to the code. A code or QR
// collision maps to ErrExists; any other failure passes through.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	if s.QRCode == "" {
		s.QRCode = s.Code
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (code, qr_code, first_name, last_name, course, year_level, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, s.Code, s.QRCode, s.FirstName, s.LastName, s.Course, s.YearLevel, s.PhotoURL)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Student{}, ErrExists
		}
		return Student{}, err
	}
	return s, nil
}

// GetByCode returns a student by formatted identifier, or nil when absent.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Student, error) {
	return r.one(ctx, `SELECT `+cols+` FROM students WHERE code = $1`, code)
}

// GetByQR resolves a scanned code to a student, or nil when nothing matches.
func (r *Repository) GetByQR(ctx context.Context, qr string) (*Student, error) {
	return r.one(ctx, `SELECT `+cols+` FROM students WHERE qr_code = $1`, qr)
}

func (r *Repository) one(ctx context.Context, query string, arg any) (*Student, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var s Student
	if err := scan(row, &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns students filtered by a free-text query over code and names and
// by course, with limit/offset paging.
func (r *Repository) List(ctx context.Context, q, course string, limit, offset int) ([]Student, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + cols + ` FROM students`
	args := []any{}
	clauses := []string{}
	if q != "" {
		like := "%" + q + "%"
		clauses = append(clauses, fmt.Sprintf(
			"(code ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, like)
	}
	if course != "" {
		clauses = append(clauses, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, course)
	}
	if len(clauses) > 0 {
		query += " WHERE " + clauses[0]
		for _, c := range clauses[1:] {
			query += " AND " + c
		}
	}
	query += fmt.Sprintf(" ORDER BY code LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := scan(rows, &s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Update rewrites a student's mutable fields. When newCode differs from the
// current code the change cascades to registrations and attendance inside the
// same transaction, so a failure anywhere leaves all tables untouched.
func (r *Repository) Update(ctx context.Context, currentCode string, s Student) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE students
		SET code = $2, qr_code = $3, first_name = $4, last_name = $5, course = $6, year_level = $7, photo_url = $8
		WHERE code = $1
	`, currentCode, s.Code, s.QRCode, s.FirstName, s.LastName, s.Course, s.YearLevel, s.PhotoURL)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if s.Code != currentCode {
		if _, err := tx.ExecContext(ctx,
			`UPDATE event_registrations SET student_code = $2 WHERE student_code = $1`,
			currentCode, s.Code); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE attendance SET student_code = $2 WHERE student_code = $1`,
			currentCode, s.Code); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a student together with their registrations and attendance,
// all in one transaction.
func (r *Repository) Delete(ctx context.Context, code string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_code = $1`, code); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_registrations WHERE student_code = $1`, code); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Count returns the student total, for the dashboard.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}
