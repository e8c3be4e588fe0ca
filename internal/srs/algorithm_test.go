package srs

import (
	"math"
	"reflect"
	"testing"
	"time"
)

var day0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeNextState_EndToEndExample(t *testing.T) {
	p := DefaultPolicy()
	rec := NewRecord("learner-1", "item-1", p)

	rec = ComputeNextState(rec, Good, days(0), p)
	if rec.IntervalDays != 1 {
		t.Errorf("after first Good: IntervalDays = %d, want 1", rec.IntervalDays)
	}
	if !rec.DueAt.Equal(days(1)) {
		t.Errorf("after first Good: DueAt = %v, want %v", rec.DueAt, days(1))
	}

	rec = ComputeNextState(rec, Good, days(1), p)
	if rec.IntervalDays != 3 {
		t.Errorf("after second Good: IntervalDays = %d, want 3", rec.IntervalDays)
	}
	if !rec.DueAt.Equal(days(4)) {
		t.Errorf("after second Good: DueAt = %v, want %v", rec.DueAt, days(4))
	}
	if rec.Repetitions != 2 {
		t.Errorf("after second Good: Repetitions = %d, want 2", rec.Repetitions)
	}

	rec = ComputeNextState(rec, Fail, days(4), p)
	if rec.Repetitions != 0 {
		t.Errorf("after Fail: Repetitions = %d, want 0", rec.Repetitions)
	}
	if rec.IntervalDays != 1 {
		t.Errorf("after Fail: IntervalDays = %d, want 1", rec.IntervalDays)
	}
	if !almostEqual(rec.EaseFactor, 2.3) {
		t.Errorf("after Fail: EaseFactor = %v, want 2.3", rec.EaseFactor)
	}
	if !rec.DueAt.Equal(days(5)) {
		t.Errorf("after Fail: DueAt = %v, want %v", rec.DueAt, days(5))
	}
	if rec.Lapses != 1 {
		t.Errorf("after Fail: Lapses = %d, want 1", rec.Lapses)
	}
	if !rec.LastReviewedAt.Equal(days(4)) {
		t.Errorf("after Fail: LastReviewedAt = %v, want %v", rec.LastReviewedAt, days(4))
	}
}

func TestComputeNextState_Outcomes(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name         string
		interval     int
		ease         float64
		reps         int
		outcome      Outcome
		wantInterval int
		wantEase     float64
		wantReps     int
	}{
		{"fail resets long interval", 120, 2.5, 7, Fail, 1, 2.3, 0},
		{"fail on new item", 0, 2.5, 0, Fail, 1, 2.3, 0},
		{"hard on new item", 0, 2.5, 0, Hard, 1, 2.35, 1},
		{"hard grows by multiplier", 10, 2.5, 3, Hard, 12, 2.35, 4},
		{"hard never shrinks below one day", 1, 2.5, 1, Hard, 1, 2.35, 2},
		{"good on new item", 0, 2.5, 0, Good, 1, 2.5, 1},
		{"good multiplies by ease", 3, 2.5, 2, Good, 8, 2.5, 3},
		{"easy on new item", 0, 2.5, 0, Easy, 1, 2.65, 1},
		{"easy applies bonus and multiplier", 4, 2.5, 2, Easy, 14, 2.65, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{EaseFactor: tt.ease, IntervalDays: tt.interval, Repetitions: tt.reps}
			got := ComputeNextState(rec, tt.outcome, day0, p)
			if got.IntervalDays != tt.wantInterval {
				t.Errorf("IntervalDays = %d, want %d", got.IntervalDays, tt.wantInterval)
			}
			if !almostEqual(got.EaseFactor, tt.wantEase) {
				t.Errorf("EaseFactor = %v, want %v", got.EaseFactor, tt.wantEase)
			}
			if got.Repetitions != tt.wantReps {
				t.Errorf("Repetitions = %d, want %d", got.Repetitions, tt.wantReps)
			}
			if !got.DueAt.Equal(day0.AddDate(0, 0, tt.wantInterval)) {
				t.Errorf("DueAt = %v, want now + %d days", got.DueAt, tt.wantInterval)
			}
		})
	}
}

func TestComputeNextState_Deterministic(t *testing.T) {
	p := DefaultPolicy()
	due := days(-2)
	rec := Record{
		LearnerID:    "l",
		ItemID:       "i",
		EaseFactor:   2.1,
		IntervalDays: 17,
		Repetitions:  4,
		Lapses:       2,
		DueAt:        &due,
		Version:      9,
	}

	for _, o := range []Outcome{Fail, Hard, Good, Easy} {
		first := ComputeNextState(rec, o, day0, p)
		for i := 0; i < 50; i++ {
			again := ComputeNextState(rec, o, day0, p)
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: run %d differs: %+v vs %+v", o, i, first, again)
			}
		}
	}
}

func TestComputeNextState_DoesNotMutateInput(t *testing.T) {
	p := DefaultPolicy()
	due := days(1)
	rec := Record{EaseFactor: 2.5, IntervalDays: 5, Repetitions: 2, DueAt: &due}

	_ = ComputeNextState(rec, Fail, days(3), p)

	if rec.IntervalDays != 5 || rec.Repetitions != 2 || !rec.DueAt.Equal(days(1)) {
		t.Errorf("input record was modified: %+v", rec)
	}
}

func TestComputeNextState_EaseFloor(t *testing.T) {
	p := DefaultPolicy()
	rec := NewRecord("l", "i", p)
	now := day0

	for i := 0; i < 40; i++ {
		rec = ComputeNextState(rec, Fail, now, p)
		if rec.EaseFactor < p.MinEase {
			t.Fatalf("after %d fails EaseFactor = %v, below %v", i+1, rec.EaseFactor, p.MinEase)
		}
		now = *rec.DueAt
	}
	if !almostEqual(rec.EaseFactor, p.MinEase) {
		t.Errorf("EaseFactor = %v, want floor %v", rec.EaseFactor, p.MinEase)
	}
	if rec.Lapses != 40 {
		t.Errorf("Lapses = %d, want 40", rec.Lapses)
	}

	for i := 0; i < 40; i++ {
		rec = ComputeNextState(rec, Hard, now, p)
		if rec.EaseFactor < p.MinEase {
			t.Fatalf("after %d hards EaseFactor = %v, below %v", i+1, rec.EaseFactor, p.MinEase)
		}
		now = *rec.DueAt
	}
}

func TestComputeNextState_MonotoneUnderSuccess(t *testing.T) {
	p := DefaultPolicy()

	for _, o := range []Outcome{Good, Easy} {
		rec := NewRecord("l", "i", p)
		now := day0
		prev := 0
		for i := 0; i < 30; i++ {
			rec = ComputeNextState(rec, o, now, p)
			if rec.IntervalDays < prev {
				t.Fatalf("%s review %d: interval %d decreased from %d", o, i+1, rec.IntervalDays, prev)
			}
			prev = rec.IntervalDays
			now = *rec.DueAt
		}
	}
}

func TestComputeNextState_IntervalCap(t *testing.T) {
	p := DefaultPolicy()
	p.MaxIntervalDays = 60

	rec := Record{EaseFactor: 3.0, IntervalDays: 50, Repetitions: 5}
	got := ComputeNextState(rec, Easy, day0, p)
	if got.IntervalDays != 60 {
		t.Errorf("IntervalDays = %d, want cap 60", got.IntervalDays)
	}
	if !got.DueAt.Equal(day0.AddDate(0, 0, 60)) {
		t.Errorf("DueAt = %v, want capped due date", got.DueAt)
	}
}

func TestComputeNextState_CarriesIdentity(t *testing.T) {
	p := DefaultPolicy()
	created := days(-10)
	rec := Record{
		LearnerID:  "l",
		ItemID:     "i",
		EaseFactor: 2.5,
		Version:    3,
		Suspended:  true,
		CreatedAt:  created,
	}

	got := ComputeNextState(rec, Good, day0, p)
	if got.Version != 3 || !got.Suspended || !got.CreatedAt.Equal(created) {
		t.Errorf("identity fields changed: %+v", got)
	}
	if got.TotalReviews != 1 || got.CorrectReviews != 1 {
		t.Errorf("TotalReviews/CorrectReviews = %d/%d, want 1/1", got.TotalReviews, got.CorrectReviews)
	}

	got = ComputeNextState(got, Fail, days(1), p)
	if got.TotalReviews != 2 || got.CorrectReviews != 1 {
		t.Errorf("after Fail TotalReviews/CorrectReviews = %d/%d, want 2/1", got.TotalReviews, got.CorrectReviews)
	}
}

func TestReplay_MatchesIncrementalState(t *testing.T) {
	p := DefaultPolicy()
	outcomes := []Outcome{Good, Good, Hard, Fail, Easy, Good}

	rec := NewRecord("l", "i", p)
	rec.CreatedAt = day0
	var events []Event
	now := day0
	for i, o := range outcomes {
		rec = ComputeNextState(rec, o, now, p)
		events = append(events, Event{
			Sequence:          int64(i + 1),
			LearnerID:         "l",
			ItemID:            "i",
			Outcome:           o,
			OccurredAt:        now,
			ResultingInterval: rec.IntervalDays,
		})
		now = *rec.DueAt
	}

	// Shuffle the order; replay must sort by sequence.
	events[0], events[4] = events[4], events[0]

	got := Replay("l", "i", events, p)
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Replay = %+v\nwant   %+v", got, rec)
	}
}

func TestReplay_Empty(t *testing.T) {
	p := DefaultPolicy()
	got := Replay("l", "i", nil, p)
	if !reflect.DeepEqual(got, NewRecord("l", "i", p)) {
		t.Errorf("Replay(nil) = %+v, want new record", got)
	}
}
