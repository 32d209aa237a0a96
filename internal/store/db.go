package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the schema exists.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return &DB{Client: db}, err
	}
	if err := migrate(db); err != nil {
		return &DB{Client: db}, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS staff (
		id            UUID PRIMARY KEY,
		username      TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGSERIAL PRIMARY KEY,
		subject    TEXT NOT NULL,
		token      TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked    BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS students (
		id         BIGSERIAL PRIMARY KEY,
		code       TEXT UNIQUE NOT NULL,
		qr_code    TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		course     TEXT NOT NULL DEFAULT '',
		year_level INT  NOT NULL DEFAULT 1,
		photo_url  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS events (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		event_date DATE NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT events_time_order CHECK (start_time < end_time)
	);

	CREATE TABLE IF NOT EXISTS event_registrations (
		id            BIGSERIAL PRIMARY KEY,
		student_code  TEXT NOT NULL,
		event_id      BIGINT NOT NULL,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT registrations_student_event UNIQUE (student_code, event_id)
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id             BIGSERIAL PRIMARY KEY,
		student_code   TEXT NOT NULL,
		event_id       BIGINT NOT NULL,
		check_in_time  TIMESTAMPTZ,
		check_out_time TIMESTAMPTZ,
		status         TEXT NOT NULL,
		marked_by      TEXT NOT NULL DEFAULT '',
		CONSTRAINT attendance_student_event UNIQUE (student_code, event_id)
	);

	CREATE TABLE IF NOT EXISTS scan_audit (
		id           UUID PRIMARY KEY,
		staff        TEXT NOT NULL,
		action       TEXT NOT NULL,
		student_code TEXT NOT NULL,
		event_id     BIGINT NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_registrations_event ON event_registrations(event_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_event    ON attendance(event_id);
	CREATE INDEX IF NOT EXISTS idx_events_date         ON events(event_date);
	CREATE INDEX IF NOT EXISTS idx_scan_audit_event    ON scan_audit(event_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
