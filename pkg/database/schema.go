package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements is portable between postgres and sqlite. List and map
// fields are stored as JSON text.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS faculty (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		assigned_subjects TEXT NOT NULL DEFAULT '[]',
		max_sessions_per_week INTEGER NOT NULL DEFAULT 0,
		avg_leaves_per_month REAL NOT NULL DEFAULT 0,
		availability TEXT NOT NULL DEFAULT 'null',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		semester TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		weekly_hours INTEGER NOT NULL DEFAULT 3,
		linked_faculty_ids TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS classrooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		number TEXT NOT NULL DEFAULT '',
		building TEXT NOT NULL DEFAULT '',
		capacity INTEGER NOT NULL DEFAULT 0,
		kind TEXT NOT NULL,
		equipment TEXT NOT NULL DEFAULT '[]',
		availability TEXT NOT NULL DEFAULT 'null',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		semester TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		strength INTEGER NOT NULL DEFAULT 0,
		subjects TEXT NOT NULL DEFAULT '[]',
		faculty_assignments TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scheduling_rules (
		id INTEGER PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS timetables (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		algorithm TEXT NOT NULL DEFAULT '',
		periods_per_day INTEGER NOT NULL DEFAULT 0,
		days TEXT NOT NULL DEFAULT '[]',
		placed_count INTEGER NOT NULL DEFAULT 0,
		unplaced_count INTEGER NOT NULL DEFAULT 0,
		generated_at TIMESTAMP NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timetables_generated_at ON timetables (generated_at)`,
}

// EnsureSchema creates the tables used by the SQL repositories when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
