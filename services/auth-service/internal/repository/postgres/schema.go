package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements создают таблицы подсистемы, если их еще нет
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL DEFAULT '',
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		address       TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS medical_history (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL REFERENCES patients(id),
		diagnosis   TEXT NOT NULL,
		treatment   TEXT NOT NULL DEFAULT '',
		notes       TEXT,
		recorded_by TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medical_history_patient_idx ON medical_history (patient_id, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		user_type     TEXT NOT NULL,
		ip_address    TEXT NOT NULL DEFAULT '',
		user_agent    TEXT NOT NULL DEFAULT '',
		login_time    TIMESTAMPTZ NOT NULL,
		last_activity TIMESTAMPTZ NOT NULL,
		active        BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS user_sessions_active_username_idx ON user_sessions (username) WHERE active`,
	`CREATE INDEX IF NOT EXISTS user_sessions_active_activity_idx ON user_sessions (last_activity) WHERE active`,
	`CREATE TABLE IF NOT EXISTS login_attempts (
		id           TEXT PRIMARY KEY,
		username     TEXT NOT NULL,
		ip_address   TEXT NOT NULL,
		successful   BOOLEAN NOT NULL,
		attempted_at TIMESTAMPTZ NOT NULL,
		user_agent   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS login_attempts_username_idx ON login_attempts (username, attempted_at DESC)`,
	`CREATE INDEX IF NOT EXISTS login_attempts_failed_ip_idx ON login_attempts (ip_address, attempted_at) WHERE NOT successful`,
	`CREATE TABLE IF NOT EXISTS blocked_ips (
		id         TEXT PRIMARY KEY,
		ip_address TEXT NOT NULL,
		reason     TEXT NOT NULL,
		blocked_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	// не больше одной активной блокировки на IP
	`CREATE UNIQUE INDEX IF NOT EXISTS blocked_ips_active_ip_uq ON blocked_ips (ip_address) WHERE active`,
	`CREATE TABLE IF NOT EXISTS audit_entries (
		id          TEXT PRIMARY KEY,
		actor       TEXT NOT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		ip_address  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_entries_entity_idx ON audit_entries (entity_type, entity_id)`,
}

// EnsureSchema создает таблицы и индексы
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
