package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/lingua/internal/srs"
)

// eventRepo implements EventRepo with database/sql.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) Events(ctx context.Context, learnerID, itemID string, opts QueryOpts) ([]srs.Event, error) {
	var (
		where = []string{"learner_id = ?", "item_id = ?"}
		args  = []any{learnerID, itemID}
	)
	if opts.After > 0 {
		where = append(where, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		where = append(where, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, encodeTime(opts.From))
	}
	if !opts.To.IsZero() {
		where = append(where, "occurred_at <= ?")
		args = append(args, encodeTime(opts.To))
	}

	query := `SELECT id, sequence, learner_id, item_id, outcome, occurred_at, resulting_interval, resulting_version
		FROM review_events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY sequence ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(query), args...)
	if err != nil {
		return nil, unavailable("query events", err)
	}
	defer rows.Close()

	var out []srs.Event
	for rows.Next() {
		var (
			ev         srs.Event
			outcome    string
			occurredAt string
		)
		if err := rows.Scan(&ev.ID, &ev.Sequence, &ev.LearnerID, &ev.ItemID, &outcome,
			&occurredAt, &ev.ResultingInterval, &ev.ResultingVersion); err != nil {
			return nil, unavailable("query events: scan", err)
		}
		if err := ev.Outcome.UnmarshalText([]byte(outcome)); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		if ev.OccurredAt, err = time.Parse(timeLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("event %s: parse occurred_at: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query events", err)
	}
	return out, nil
}

func (r *eventRepo) OutcomeCounts(ctx context.Context, learnerID string) (map[srs.Outcome]int, error) {
	rows, err := r.s.db.QueryContext(ctx,
		r.s.rebind(`SELECT outcome, COUNT(*) FROM review_events WHERE learner_id = ? GROUP BY outcome`),
		learnerID)
	if err != nil {
		return nil, unavailable("count outcomes", err)
	}
	defer rows.Close()

	counts := make(map[srs.Outcome]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, unavailable("count outcomes: scan", err)
		}
		o, err := srs.ParseOutcome(name)
		if err != nil {
			return nil, fmt.Errorf("count outcomes: %w", err)
		}
		counts[o] += n
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("count outcomes", err)
	}
	return counts, nil
}
