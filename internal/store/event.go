package store

import (
	"context"
	"database/sql"
	"fmt"
)

// nextSequence allocates the next global event sequence number inside tx.
//
// Review events for all learners share one increasing sequence so the log
// has a total order. On Postgres the number comes from review_event_seq:
// nextval holds no lock until commit, so reviews by different learners do
// not wait on each other, and a rolled back review leaves a gap. SQLite
// already serializes writers on the database lock, so there the counter row
// is bumped with UPDATE ... RETURNING and a rollback consumes nothing.
func (s *Store) nextSequence(ctx context.Context, tx *sql.Tx) (int64, error) {
	query := `UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`
	if s.dialect == DialectPostgres {
		query = `SELECT nextval('review_event_seq')`
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
