package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Staff is a portal account.
type Staff struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository persists staff accounts and refresh tokens.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateStaff inserts a staff account with an already-hashed password.
func (r *Repository) CreateStaff(ctx context.Context, username, passwordHash string) (Staff, error) {
	st := Staff{ID: uuid.NewString(), Username: username, PasswordHash: passwordHash}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO staff (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, st.ID, st.Username, st.PasswordHash)
	if err := row.Scan(&st.CreatedAt); err != nil {
		return Staff{}, err
	}
	return st, nil
}

// GetStaff returns a staff account by username, or nil when absent.
func (r *Repository) GetStaff(ctx context.Context, username string) (*Staff, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM staff WHERE username = $1
	`, username)
	var st Staff
	if err := row.Scan(&st.ID, &st.Username, &st.PasswordHash, &st.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, subject, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (subject, token, expires_at)
		VALUES ($1, $2, $3)
	`, subject, token, expiresAt)
	return err
}

// RefreshTokenValid reports whether a refresh token is known, unexpired and unrevoked.
func (r *Repository) RefreshTokenValid(ctx context.Context, token string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM refresh_tokens
		WHERE token = $1 AND NOT revoked AND expires_at > NOW()
	`, token).Scan(&n)
	return n > 0, err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
