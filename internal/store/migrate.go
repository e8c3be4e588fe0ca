package store

import (
	"context"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 2

// migration holds the statements run on every dialect plus any that only
// apply to Postgres.
type migration struct {
	shared   []string
	postgres []string
}

func (m migration) statements(dialect string) []string {
	if dialect != DialectPostgres {
		return m.shared
	}
	return append(append([]string(nil), m.shared...), m.postgres...)
}

// migrations[i] upgrades the schema from version i to i+1. The shared DDL
// works on SQLite and Postgres: timestamps are fixed-width UTC text so
// ordering comparisons behave identically on both.
var migrations = []migration{
	{shared: []string{
		`CREATE TABLE IF NOT EXISTS scheduling_records (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			ease_factor DOUBLE PRECISION NOT NULL CHECK (ease_factor > 0),
			interval_days INTEGER NOT NULL CHECK (interval_days >= 0),
			repetitions INTEGER NOT NULL CHECK (repetitions >= 0),
			lapses INTEGER NOT NULL CHECK (lapses >= 0),
			due_at TEXT NULL,
			last_reviewed_at TEXT NULL,
			version BIGINT NOT NULL CHECK (version > 0),
			suspended INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			total_reviews INTEGER NOT NULL DEFAULT 0,
			correct_reviews INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_due ON scheduling_records (learner_id, due_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_created ON scheduling_records (learner_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS review_events (
			id TEXT PRIMARY KEY,
			sequence BIGINT NOT NULL UNIQUE,
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			resulting_interval INTEGER NOT NULL,
			resulting_version BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_learner_item ON review_events (learner_id, item_id, sequence)`,
		`CREATE TABLE IF NOT EXISTS global_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val BIGINT NOT NULL DEFAULT 1
		)`,
		`INSERT INTO global_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,
	}},
	// Postgres allocates event sequence numbers from a real sequence,
	// continuing where the counter row left off.
	{postgres: []string{
		`CREATE SEQUENCE IF NOT EXISTS review_event_seq`,
		`SELECT setval('review_event_seq', (SELECT next_val FROM global_sequence WHERE id = 1), false)`,
	}},
}

// migrate ensures the schema exists and is upgraded to SchemaVersion.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}

	for v := current; v < SchemaVersion; v++ {
		if err := s.applyMigration(ctx, v+1, migrations[v].statements(s.dialect)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, stmts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", version, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: statement %d: %w", version, i, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version); err != nil {
		return fmt.Errorf("migration %d: record version: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", version, err)
	}
	return nil
}
