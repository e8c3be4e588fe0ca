package srs

import (
	"math"
	"sort"
	"time"
)

// ComputeNextState applies one review outcome to a record and returns the
// new state. It is pure: the input record is not modified and no fields
// outside the scheduling state are touched (Version, Suspended and
// CreatedAt are carried over as-is).
//
// outcome must be valid; callers validate before reaching the algorithm.
func ComputeNextState(rec Record, outcome Outcome, now time.Time, p Policy) Record {
	next := rec
	next.TotalReviews++

	switch {
	case outcome.Resets():
		next.Repetitions = 0
		next.Lapses++
		next.EaseFactor = math.Max(p.MinEase, rec.EaseFactor-p.FailEasePenalty)
		next.IntervalDays = 1

	case outcome == Hard:
		next.Repetitions++
		next.CorrectReviews++
		next.EaseFactor = math.Max(p.MinEase, rec.EaseFactor-p.HardEasePenalty)
		if rec.IntervalDays > 0 {
			next.IntervalDays = atLeastOneDay(float64(rec.IntervalDays) * p.HardMultiplier)
		} else {
			next.IntervalDays = 1
		}

	case outcome == Good:
		next.Repetitions++
		next.CorrectReviews++
		next.IntervalDays = atLeastOneDay(baseInterval(rec.IntervalDays, rec.EaseFactor))

	default: // Easy
		next.Repetitions++
		next.CorrectReviews++
		next.EaseFactor = rec.EaseFactor + p.EasyEaseBonus
		next.IntervalDays = atLeastOneDay(baseInterval(rec.IntervalDays, next.EaseFactor) * p.EasyMultiplier)
	}

	next.IntervalDays = clampInterval(next.IntervalDays, p.MaxIntervalDays)

	due := now.AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.DueAt = &due
	next.LastReviewedAt = &reviewed
	return next
}

// baseInterval is the interval the ease factor multiplies. A record that
// was never scheduled grows from one day so the first success is not zero.
func baseInterval(intervalDays int, ease float64) float64 {
	if intervalDays == 0 {
		return 1
	}
	return float64(intervalDays) * ease
}

func atLeastOneDay(days float64) int {
	n := int(math.Round(days))
	if n < 1 {
		return 1
	}
	return n
}

func clampInterval(days, maxDays int) int {
	if days < 0 {
		return 0
	}
	if days > maxDays {
		return maxDays
	}
	return days
}

// Replay rebuilds a record by folding the review log through
// ComputeNextState in sequence order. The returned record carries no
// version; the caller decides how to persist it.
func Replay(learnerID, itemID string, events []Event, p Policy) Record {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	rec := NewRecord(learnerID, itemID, p)
	for _, ev := range sorted {
		if !ev.Outcome.IsValid() {
			continue
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = ev.OccurredAt
		}
		rec = ComputeNextState(rec, ev.Outcome, ev.OccurredAt, p)
	}
	return rec
}
