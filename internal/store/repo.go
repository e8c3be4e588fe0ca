package store

import (
	"context"
	"time"

	"github.com/abhisek/lingua/internal/srs"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before (0 = no bound)
	From   time.Time // occurred_at >= From
	To     time.Time // occurred_at <= To
}

// RecordRepo persists scheduling records. Every write is a compare-and-swap
// on the record version.
type RecordRepo interface {
	// Get returns the record, or nil if the learner never reviewed the item.
	Get(ctx context.Context, learnerID, itemID string) (*srs.Record, error)

	// Commit writes next and appends ev in one transaction, provided the
	// stored version still equals expectedVersion (0 = record must not
	// exist yet). It returns the stored record and event. A lost race
	// yields ErrConflict and writes nothing.
	Commit(ctx context.Context, next srs.Record, expectedVersion int64, ev srs.Event) (srs.Record, srs.Event, error)

	// Replace overwrites the scheduling fields without appending an event.
	// Used to repair a record from the review log.
	Replace(ctx context.Context, rec srs.Record, expectedVersion int64) (srs.Record, error)

	// SetSuspended toggles the suspended flag.
	SetSuspended(ctx context.Context, learnerID, itemID string, suspended bool, expectedVersion int64) (srs.Record, error)

	// Due returns non-suspended records due at or before now, most overdue
	// first. Records without a due date sort as due exactly at now.
	// limit <= 0 means no limit.
	Due(ctx context.Context, learnerID string, now time.Time, limit int) ([]srs.Record, error)

	// Seen returns the ids of every item the learner has a record for.
	Seen(ctx context.Context, learnerID string) (map[string]bool, error)

	// IntroducedSince counts records first created at or after since.
	IntroducedSince(ctx context.Context, learnerID string, since time.Time) (int, error)

	// List returns all records of a learner ordered by item id.
	List(ctx context.Context, learnerID string) ([]srs.Record, error)
}

// EventRepo reads the append-only review log. Appends only happen through
// RecordRepo.Commit.
type EventRepo interface {
	// Events returns a learner's events for one item in sequence order.
	Events(ctx context.Context, learnerID, itemID string, opts QueryOpts) ([]srs.Event, error)

	// OutcomeCounts returns how many events of each outcome a learner has.
	OutcomeCounts(ctx context.Context, learnerID string) (map[srs.Outcome]int, error)
}
