package review

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/lingua/internal/srs"
	"github.com/abhisek/lingua/internal/store"
)

// State is the scheduling state of one item as reported to a learner.
// When New is true the learner has never reviewed the item and Record
// holds the initial state that the first review will start from.
type State struct {
	New    bool       `json:"new"`
	Phase  srs.Phase  `json:"phase"`
	Record srs.Record `json:"record"`
}

// GetSchedulingState returns the record for (learner, item), or a New state
// when none exists. The item is not resolved against the catalog.
func (s *Service) GetSchedulingState(ctx context.Context, learnerID, itemID string) (State, error) {
	const op = "get scheduling state"

	if err := validateIDs(op, learnerID, itemID); err != nil {
		return State{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.GetSchedulingState", learnerID, itemID)
	defer span.End()

	rec, err := s.records.Get(ctx, learnerID, itemID)
	if err != nil {
		return State{}, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}
	if rec == nil {
		fresh := srs.NewRecord(learnerID, itemID, s.policy)
		return State{New: true, Phase: srs.PhaseNew, Record: fresh}, nil
	}
	return State{Phase: rec.Phase(s.policy), Record: *rec}, nil
}

// History returns the review log of one item in sequence order.
func (s *Service) History(ctx context.Context, learnerID, itemID string, opts store.QueryOpts) ([]srs.Event, error) {
	const op = "history"

	if err := validateIDs(op, learnerID, itemID); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.History", learnerID, itemID)
	defer span.End()

	events, err := s.events.Events(ctx, learnerID, itemID, opts)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}
	return events, nil
}

// Suspend removes an item from the learner's due queues until it is
// unsuspended. Only items the learner has reviewed can be suspended.
func (s *Service) Suspend(ctx context.Context, learnerID, itemID string) (srs.Record, error) {
	return s.setSuspended(ctx, "suspend", learnerID, itemID, true)
}

// Unsuspend returns a suspended item to the learner's due queues.
func (s *Service) Unsuspend(ctx context.Context, learnerID, itemID string) (srs.Record, error) {
	return s.setSuspended(ctx, "unsuspend", learnerID, itemID, false)
}

func (s *Service) setSuspended(ctx context.Context, op, learnerID, itemID string, suspended bool) (srs.Record, error) {
	if err := validateIDs(op, learnerID, itemID); err != nil {
		return srs.Record{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.SetSuspended", learnerID, itemID,
		attribute.Bool("suspended", suspended))
	defer span.End()

	if _, err := s.catalog.Resolve(ctx, itemID); err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "item_id", itemID)
	}

	cur, err := s.records.Get(ctx, learnerID, itemID)
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}
	if cur == nil {
		return srs.Record{}, validationf(op, "item %q has not been reviewed yet", itemID)
	}
	if cur.Suspended == suspended {
		return *cur, nil
	}

	rec, err := s.records.SetSuspended(ctx, learnerID, itemID, suspended, cur.Version)
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err,
			"learner_id", learnerID, "item_id", itemID, "base_version", cur.Version)
	}
	s.log.Info("item suspension changed",
		"learner_id", learnerID,
		"item_id", itemID,
		"suspended", suspended,
	)
	return rec, nil
}

// Repair rebuilds a record by replaying its review log and writes it back
// with a compare-and-swap. The suspended flag is kept as stored.
func (s *Service) Repair(ctx context.Context, learnerID, itemID string) (srs.Record, error) {
	const op = "repair"

	if err := validateIDs(op, learnerID, itemID); err != nil {
		return srs.Record{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.Repair", learnerID, itemID)
	defer span.End()

	events, err := s.events.Events(ctx, learnerID, itemID, store.QueryOpts{})
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}
	if len(events) == 0 {
		return srs.Record{}, validationf(op, "item %q has no review history", itemID)
	}

	cur, err := s.records.Get(ctx, learnerID, itemID)
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}

	rebuilt := srs.Replay(learnerID, itemID, events, s.policy)
	var expected int64
	if cur != nil {
		rebuilt.Suspended = cur.Suspended
		expected = cur.Version
	}

	rec, err := s.records.Replace(ctx, rebuilt, expected)
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err,
			"learner_id", learnerID, "item_id", itemID, "base_version", expected)
	}
	s.log.Info("record repaired from review log",
		"learner_id", learnerID,
		"item_id", itemID,
		"events", len(events),
		"version", rec.Version,
	)
	return rec, nil
}

// Stats summarizes a learner's scheduling records.
type Stats struct {
	Items          int                 `json:"items"`
	Learning       int                 `json:"learning"`
	Review         int                 `json:"review"`
	DueNow         int                 `json:"due_now"`
	Suspended      int                 `json:"suspended"`
	Lapses         int                 `json:"lapses"`
	TotalReviews   int                 `json:"total_reviews"`
	CorrectReviews int                 `json:"correct_reviews"`
	Accuracy       float64             `json:"accuracy"`
	Outcomes       map[srs.Outcome]int `json:"outcomes"`

	// Unseen counts catalog items the learner has no record for.
	Unseen int `json:"unseen"`
}

// Stats reports counts per phase, due load and answer accuracy.
func (s *Service) Stats(ctx context.Context, learnerID string, now time.Time) (Stats, error) {
	const op = "stats"

	if err := validateLearner(op, learnerID); err != nil {
		return Stats{}, err
	}
	if now.IsZero() {
		now = s.Now()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.Stats", learnerID, "")
	defer span.End()

	records, err := s.records.List(ctx, learnerID)
	if err != nil {
		return Stats{}, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}
	outcomes, err := s.events.OutcomeCounts(ctx, learnerID)
	if err != nil {
		return Stats{}, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}
	catalog, err := s.catalog.Items(ctx)
	if err != nil {
		return Stats{}, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}

	st := Stats{Items: len(records), Outcomes: outcomes}
	known := make(map[string]bool, len(records))
	for i := range records {
		rec := &records[i]
		known[rec.ItemID] = true

		switch rec.Phase(s.policy) {
		case srs.PhaseLearning:
			st.Learning++
		case srs.PhaseReview:
			st.Review++
		}
		if rec.Suspended {
			st.Suspended++
		} else if rec.IsDue(now) {
			st.DueNow++
		}
		st.Lapses += rec.Lapses
		st.TotalReviews += rec.TotalReviews
		st.CorrectReviews += rec.CorrectReviews
	}
	for _, it := range catalog {
		if !known[it.ID] {
			st.Unseen++
		}
	}
	if st.TotalReviews > 0 {
		st.Accuracy = float64(st.CorrectReviews) / float64(st.TotalReviews)
	}
	return st, nil
}
