package srs

import "time"

// Record is the scheduling state of one item for one learner.
type Record struct {
	LearnerID      string     `json:"learner_id"`
	ItemID         string     `json:"item_id"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	Lapses         int        `json:"lapses"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`

	// Version is the optimistic lock token. Zero means never persisted.
	Version int64 `json:"version"`

	Suspended      bool      `json:"suspended"`
	CreatedAt      time.Time `json:"created_at"`
	TotalReviews   int       `json:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews"`
}

// NewRecord returns the state of an item the learner has never reviewed.
func NewRecord(learnerID, itemID string, p Policy) Record {
	return Record{
		LearnerID:  learnerID,
		ItemID:     itemID,
		EaseFactor: p.InitialEase,
	}
}

// IsNew reports whether the record has never been persisted.
func (r *Record) IsNew() bool {
	return r.Version == 0
}

// IsDue returns true if the item is eligible for review at now. Records
// without a due date are always due.
func (r *Record) IsDue(now time.Time) bool {
	if r.DueAt == nil {
		return true
	}
	return !now.Before(*r.DueAt)
}

// OverdueDays returns how many days past due the item is. Returns 0 if not
// yet due or if no due date is set.
func (r *Record) OverdueDays(now time.Time) float64 {
	if r.DueAt == nil || now.Before(*r.DueAt) {
		return 0
	}
	return now.Sub(*r.DueAt).Hours() / 24.0
}

// Phase is the learner-facing stage of an item. It is derived from the
// record on read and never stored.
type Phase string

const (
	PhaseNew      Phase = "new"
	PhaseLearning Phase = "learning"
	PhaseReview   Phase = "review"
)

// Phase derives the learner-facing stage from repetitions.
func (r *Record) Phase(p Policy) Phase {
	switch {
	case r.IsNew():
		return PhaseNew
	case r.Repetitions >= p.GraduationThreshold:
		return PhaseReview
	default:
		return PhaseLearning
	}
}

// Event is one entry of the append-only review log.
type Event struct {
	ID                string    `json:"id"`
	Sequence          int64     `json:"sequence"`
	LearnerID         string    `json:"learner_id"`
	ItemID            string    `json:"item_id"`
	Outcome           Outcome   `json:"outcome"`
	OccurredAt        time.Time `json:"occurred_at"`
	ResultingInterval int       `json:"resulting_interval"`
	ResultingVersion  int64     `json:"resulting_version"`
}
