// Package postgres opens the shared database handle and owns schema setup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens a Postgres connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema idempotently. Statements are ordered so foreign
// lookups (users) exist before the tables that reference them logically.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			role       TEXT NOT NULL DEFAULT 'EMPLOYEE',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			user_name    TEXT NOT NULL,
			event_type   TEXT NOT NULL,
			event_action TEXT NOT NULL,
			old_data     JSONB,
			new_data     JSONB,
			ip_address   TEXT,
			user_agent   TEXT,
			client       TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_event_type ON audit_logs (event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL,
			sender_id    TEXT NOT NULL,
			sender_name  TEXT NOT NULL,
			type         TEXT NOT NULL,
			title        TEXT NOT NULL,
			message      TEXT NOT NULL,
			metadata     JSONB,
			is_read      BOOLEAN NOT NULL DEFAULT FALSE,
			read_at      TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications (created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
