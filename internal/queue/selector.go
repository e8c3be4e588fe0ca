// Package queue selects which items a learner should study next.
package queue

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/srs"
)

// RecordSource is the read side of the scheduling store used by the
// selector. store.RecordRepo satisfies it.
type RecordSource interface {
	Due(ctx context.Context, learnerID string, now time.Time, limit int) ([]srs.Record, error)
	Seen(ctx context.Context, learnerID string) (map[string]bool, error)
	IntroducedSince(ctx context.Context, learnerID string, since time.Time) (int, error)
}

// Selector builds due queues. A nil Catalog disables new-item introduction.
type Selector struct {
	Records RecordSource
	Catalog item.Catalog
	Policy  srs.Policy
}

// NewSelector creates a Selector.
func NewSelector(records RecordSource, catalog item.Catalog, policy srs.Policy) *Selector {
	return &Selector{
		Records: records,
		Catalog: catalog,
		Policy:  policy,
	}
}

// DueItems returns up to limit item ids for the learner at now:
// due reviews, most overdue first, with one never-seen item after every
// Policy.NewPerDue due items. Whichever side runs out first, the other
// fills the remaining slots. limit <= 0 yields an empty queue.
func (s *Selector) DueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	due, err := s.dueIDs(ctx, learnerID, now, limit)
	if err != nil {
		return nil, err
	}

	fresh, err := s.newIDs(ctx, learnerID, now, limit)
	if err != nil {
		return nil, err
	}

	return interleave(due, fresh, s.Policy.NewPerDue, limit), nil
}

// Seq is a lazy view of DueItems. Every iteration re-queries the store, so
// the sequence can be ranged over again to get a fresh queue. A failed
// query yields a single ("", err) pair.
func (s *Selector) Seq(ctx context.Context, learnerID string, now time.Time, limit int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ids, err := s.DueItems(ctx, learnerID, now, limit)
		if err != nil {
			yield("", err)
			return
		}
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// dueIDs returns ids of records due at or before now, most overdue first.
func (s *Selector) dueIDs(ctx context.Context, learnerID string, now time.Time, limit int) ([]string, error) {
	records, err := s.Records.Due(ctx, learnerID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due records: %w", err)
	}

	ids := make([]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.Suspended || !rec.IsDue(now) {
			continue
		}
		ids = append(ids, rec.ItemID)
	}
	return ids, nil
}

// newIDs returns never-seen catalog items in catalog order (level, then
// id), capped by what is left of today's new-item allowance.
func (s *Selector) newIDs(ctx context.Context, learnerID string, now time.Time, limit int) ([]string, error) {
	if s.Catalog == nil || s.Policy.NewItemsPerDay <= 0 {
		return nil, nil
	}

	introduced, err := s.Records.IntroducedSince(ctx, learnerID, StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("count introduced items: %w", err)
	}
	allowance := min(s.Policy.NewItemsPerDay-introduced, limit)
	if allowance <= 0 {
		return nil, nil
	}

	seen, err := s.Records.Seen(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("seen items: %w", err)
	}
	items, err := s.Catalog.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog items: %w", err)
	}

	var ids []string
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		ids = append(ids, it.ID)
		if len(ids) == allowance {
			break
		}
	}
	return ids, nil
}

// interleave merges due and fresh ids, emitting perDue due ids before each
// fresh id, and stops at limit. Duplicate ids are dropped.
func interleave(due, fresh []string, perDue, limit int) []string {
	if perDue < 1 {
		perDue = 1
	}

	out := make([]string, 0, min(limit, len(due)+len(fresh)))
	used := make(map[string]bool, cap(out))
	push := func(id string) {
		if len(out) < limit && !used[id] {
			used[id] = true
			out = append(out, id)
		}
	}

	d, f := 0, 0
	for len(out) < limit && (d < len(due) || f < len(fresh)) {
		for n := 0; n < perDue && d < len(due) && len(out) < limit; n++ {
			push(due[d])
			d++
		}
		// With due items exhausted, fresh items fill the rest back to back.
		if f < len(fresh) {
			push(fresh[f])
			f++
		}
	}
	return out
}

// StartOfDay returns midnight UTC of the day containing t. The new-item
// allowance resets at this boundary.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
