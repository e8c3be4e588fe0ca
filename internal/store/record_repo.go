package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/lingua/internal/srs"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const recordColumns = `learner_id, item_id, ease_factor, interval_days, repetitions, lapses,
	due_at, last_reviewed_at, version, suspended, created_at, total_reviews, correct_reviews`

// recordRepo implements RecordRepo with database/sql.
type recordRepo struct {
	s *Store
}

func (r *recordRepo) Get(ctx context.Context, learnerID, itemID string) (*srs.Record, error) {
	row := r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT `+recordColumns+` FROM scheduling_records WHERE learner_id = ? AND item_id = ?`),
		learnerID, itemID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get record", err)
	}
	return &rec, nil
}

func (r *recordRepo) Commit(ctx context.Context, next srs.Record, expectedVersion int64, ev srs.Event) (srs.Record, srs.Event, error) {
	const op = "commit review"

	next = normalize(next)
	next.Version = expectedVersion + 1
	if next.CreatedAt.IsZero() {
		next.CreatedAt = ev.OccurredAt.UTC()
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.LearnerID = next.LearnerID
	ev.ItemID = next.ItemID
	ev.OccurredAt = ev.OccurredAt.UTC()
	ev.ResultingInterval = next.IntervalDays
	ev.ResultingVersion = next.Version

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return srs.Record{}, srs.Event{}, unavailable(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seq, err := r.s.nextSequence(ctx, tx)
	if err != nil {
		return srs.Record{}, srs.Event{}, unavailable(op, err)
	}
	ev.Sequence = seq

	if err := r.writeCAS(ctx, tx, op, next, expectedVersion); err != nil {
		return srs.Record{}, srs.Event{}, err
	}

	outcome, err := ev.Outcome.MarshalText()
	if err != nil {
		return srs.Record{}, srs.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.ExecContext(ctx, r.s.rebind(`INSERT INTO review_events
		(id, sequence, learner_id, item_id, outcome, occurred_at, resulting_interval, resulting_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		ev.ID, ev.Sequence, ev.LearnerID, ev.ItemID, string(outcome),
		encodeTime(ev.OccurredAt), ev.ResultingInterval, ev.ResultingVersion)
	if err != nil {
		return srs.Record{}, srs.Event{}, mapError(op+": insert event", err)
	}

	if err := tx.Commit(); err != nil {
		return srs.Record{}, srs.Event{}, mapError(op, err)
	}
	return next, ev, nil
}

func (r *recordRepo) Replace(ctx context.Context, rec srs.Record, expectedVersion int64) (srs.Record, error) {
	const op = "replace record"

	rec = normalize(rec)
	rec.Version = expectedVersion + 1
	if rec.CreatedAt.IsZero() {
		return srs.Record{}, fmt.Errorf("%s: created_at is required", op)
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return srs.Record{}, unavailable(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.writeCAS(ctx, tx, op, rec, expectedVersion); err != nil {
		return srs.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return srs.Record{}, mapError(op, err)
	}
	return rec, nil
}

func (r *recordRepo) SetSuspended(ctx context.Context, learnerID, itemID string, suspended bool, expectedVersion int64) (srs.Record, error) {
	const op = "set suspended"

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return srs.Record{}, unavailable(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, r.s.rebind(`UPDATE scheduling_records
		SET suspended = ?, version = version + 1
		WHERE learner_id = ? AND item_id = ? AND version = ?`),
		boolToInt(suspended), learnerID, itemID, expectedVersion)
	if err != nil {
		return srs.Record{}, mapError(op, err)
	}
	if err := requireOneRow(op, res); err != nil {
		return srs.Record{}, err
	}

	row := tx.QueryRowContext(ctx,
		r.s.rebind(`SELECT `+recordColumns+` FROM scheduling_records WHERE learner_id = ? AND item_id = ?`),
		learnerID, itemID)
	rec, err := scanRecord(row)
	if err != nil {
		return srs.Record{}, unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return srs.Record{}, mapError(op, err)
	}
	return rec, nil
}

// writeCAS inserts (expectedVersion == 0) or updates the record, failing
// with ErrConflict when another writer got there first.
func (r *recordRepo) writeCAS(ctx context.Context, tx *sql.Tx, op string, rec srs.Record, expectedVersion int64) error {
	var (
		res sql.Result
		err error
	)
	if expectedVersion == 0 {
		res, err = tx.ExecContext(ctx, r.s.rebind(`INSERT INTO scheduling_records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (learner_id, item_id) DO NOTHING`),
			rec.LearnerID, rec.ItemID, rec.EaseFactor, rec.IntervalDays, rec.Repetitions, rec.Lapses,
			encodeTimePtr(rec.DueAt), encodeTimePtr(rec.LastReviewedAt), rec.Version,
			boolToInt(rec.Suspended), encodeTime(rec.CreatedAt), rec.TotalReviews, rec.CorrectReviews)
	} else {
		res, err = tx.ExecContext(ctx, r.s.rebind(`UPDATE scheduling_records SET
			ease_factor = ?, interval_days = ?, repetitions = ?, lapses = ?,
			due_at = ?, last_reviewed_at = ?, version = ?, suspended = ?,
			created_at = ?, total_reviews = ?, correct_reviews = ?
			WHERE learner_id = ? AND item_id = ? AND version = ?`),
			rec.EaseFactor, rec.IntervalDays, rec.Repetitions, rec.Lapses,
			encodeTimePtr(rec.DueAt), encodeTimePtr(rec.LastReviewedAt), rec.Version, boolToInt(rec.Suspended),
			encodeTime(rec.CreatedAt), rec.TotalReviews, rec.CorrectReviews,
			rec.LearnerID, rec.ItemID, expectedVersion)
	}
	if err != nil {
		return mapError(op, err)
	}
	return requireOneRow(op, res)
}

func requireOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return conflict(op)
	}
	return nil
}

func (r *recordRepo) Due(ctx context.Context, learnerID string, now time.Time, limit int) ([]srs.Record, error) {
	nowText := encodeTime(now)
	query := `SELECT ` + recordColumns + ` FROM scheduling_records
		WHERE learner_id = ? AND suspended = 0 AND (due_at IS NULL OR due_at <= ?)
		ORDER BY COALESCE(due_at, ?) ASC, item_id ASC`
	args := []any{learnerID, nowText, nowText}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryRecords(ctx, "due records", query, args...)
}

func (r *recordRepo) Seen(ctx context.Context, learnerID string) (map[string]bool, error) {
	rows, err := r.s.db.QueryContext(ctx,
		r.s.rebind(`SELECT item_id FROM scheduling_records WHERE learner_id = ?`), learnerID)
	if err != nil {
		return nil, unavailable("seen items", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("seen items: scan", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("seen items", err)
	}
	return seen, nil
}

func (r *recordRepo) IntroducedSince(ctx context.Context, learnerID string, since time.Time) (int, error) {
	var n int
	err := r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT COUNT(*) FROM scheduling_records WHERE learner_id = ? AND created_at >= ?`),
		learnerID, encodeTime(since)).Scan(&n)
	if err != nil {
		return 0, unavailable("count introduced", err)
	}
	return n, nil
}

func (r *recordRepo) List(ctx context.Context, learnerID string) ([]srs.Record, error) {
	return r.queryRecords(ctx, "list records",
		`SELECT `+recordColumns+` FROM scheduling_records WHERE learner_id = ? ORDER BY item_id ASC`,
		learnerID)
}

func (r *recordRepo) queryRecords(ctx context.Context, op, query string, args ...any) ([]srs.Record, error) {
	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(query), args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var out []srs.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, unavailable(op+": scan", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (srs.Record, error) {
	var (
		rec                 srs.Record
		dueAt, lastReviewed sql.NullString
		createdAt           string
		suspended           int
	)
	err := row.Scan(&rec.LearnerID, &rec.ItemID, &rec.EaseFactor, &rec.IntervalDays,
		&rec.Repetitions, &rec.Lapses, &dueAt, &lastReviewed, &rec.Version, &suspended,
		&createdAt, &rec.TotalReviews, &rec.CorrectReviews)
	if err != nil {
		return srs.Record{}, err
	}

	rec.Suspended = suspended != 0
	if rec.DueAt, err = decodeTimePtr(dueAt); err != nil {
		return srs.Record{}, fmt.Errorf("parse due_at: %w", err)
	}
	if rec.LastReviewedAt, err = decodeTimePtr(lastReviewed); err != nil {
		return srs.Record{}, fmt.Errorf("parse last_reviewed_at: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return srs.Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	return rec, nil
}

// normalize converts every timestamp to UTC so the returned record equals
// what a later read yields.
func normalize(rec srs.Record) srs.Record {
	if rec.DueAt != nil {
		t := rec.DueAt.UTC()
		rec.DueAt = &t
	}
	if rec.LastReviewedAt != nil {
		t := rec.LastReviewedAt.UTC()
		rec.LastReviewedAt = &t
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
