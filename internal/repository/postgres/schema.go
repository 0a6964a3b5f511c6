package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS consultations (
		id                TEXT PRIMARY KEY,
		patient_id        TEXT NOT NULL,
		input             JSONB NOT NULL,
		result            JSONB NOT NULL,
		suggested_doctors JSONB NOT NULL DEFAULT '[]',
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consultations_patient ON consultations (patient_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id              TEXT PRIMARY KEY,
		consultation_id TEXT NOT NULL UNIQUE REFERENCES consultations (id),
		doctor_id       TEXT NOT NULL,
		patient_id      TEXT NOT NULL,
		status          TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS agent_interaction_logs (
		id         TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		agent_name TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		payload    JSONB,
		response   JSONB,
		status     TEXT NOT NULL
	)`,
}

// Migrate creates the tables used by the Postgres repositories.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
