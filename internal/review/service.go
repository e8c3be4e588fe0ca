// Package review is the review session manager: it records answers,
// builds study sessions and reports scheduling state for a learner.
package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/queue"
	"github.com/abhisek/lingua/internal/srs"
	"github.com/abhisek/lingua/internal/store"
)

const tracerName = "github.com/abhisek/lingua/review"

// DefaultTimeout bounds every service call that touches the store.
const DefaultTimeout = 5 * time.Second

// Deps wires a Service. Records, Events and Catalog are required.
type Deps struct {
	Records store.RecordRepo
	Events  store.EventRepo
	Catalog item.Catalog

	// Selector builds due queues. Defaults to a queue.Selector over
	// Records and Catalog.
	Selector *queue.Selector

	Policy srs.Policy
	Logger *logger.Logger

	// Timeout applies to each call on top of the caller's deadline.
	// Zero means DefaultTimeout; negative disables it.
	Timeout time.Duration

	// Clock supplies "now" for callers that do not pass a timestamp.
	Clock func() time.Time
}

// Service implements the review operations. It holds no per-learner state;
// all of it lives in the store, so one Service is safe for concurrent use.
type Service struct {
	records  store.RecordRepo
	events   store.EventRepo
	catalog  item.Catalog
	selector *queue.Selector
	policy   srs.Policy
	log      *logger.Logger
	timeout  time.Duration
	clock    func() time.Time
	tracer   trace.Tracer
}

// New validates deps and returns a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Records == nil:
		return nil, errors.New("review: record repository is required")
	case d.Events == nil:
		return nil, errors.New("review: event repository is required")
	case d.Catalog == nil:
		return nil, errors.New("review: item catalog is required")
	}
	if err := d.Policy.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		records:  d.Records,
		events:   d.Events,
		catalog:  d.Catalog,
		selector: d.Selector,
		policy:   d.Policy,
		log:      d.Logger,
		timeout:  d.Timeout,
		clock:    d.Clock,
		tracer:   otel.Tracer(tracerName),
	}
	if s.selector == nil {
		s.selector = queue.NewSelector(d.Records, d.Catalog, d.Policy)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s, nil
}

// Now returns the service clock reading in UTC.
func (s *Service) Now() time.Time {
	return s.clock().UTC()
}

// Policy returns the scheduling policy in effect.
func (s *Service) Policy() srs.Policy {
	return s.policy
}

// SubmitReview records one answer and returns the new scheduling state.
//
// The read-compute-write cycle is a compare-and-swap on the record
// version: if another submission for the same item commits in between,
// this one fails with ErrConcurrentModification and nothing is written.
func (s *Service) SubmitReview(ctx context.Context, learnerID, itemID string, outcome srs.Outcome, now time.Time) (srs.Record, error) {
	const op = "submit review"

	if err := validateIDs(op, learnerID, itemID); err != nil {
		return srs.Record{}, err
	}
	if !outcome.IsValid() {
		return srs.Record{}, newError(op, ErrInvalidOutcome, srs.ErrInvalidOutcome)
	}
	if now.IsZero() {
		return srs.Record{}, validationf(op, "review time is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.SubmitReview", learnerID, itemID,
		attribute.String("outcome", outcome.String()))
	defer span.End()

	if _, err := s.catalog.Resolve(ctx, itemID); err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "item_id", itemID)
	}

	cur, err := s.records.Get(ctx, learnerID, itemID)
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err, "learner_id", learnerID, "item_id", itemID)
	}
	base := srs.NewRecord(learnerID, itemID, s.policy)
	if cur != nil {
		base = *cur
	}

	next := srs.ComputeNextState(base, outcome, now, s.policy)
	stored, ev, err := s.records.Commit(ctx, next, base.Version, srs.Event{
		Outcome:    outcome,
		OccurredAt: now,
	})
	if err != nil {
		return srs.Record{}, s.fail(ctx, span, op, err,
			"learner_id", learnerID, "item_id", itemID, "base_version", base.Version)
	}

	span.SetAttributes(
		attribute.Int("interval_days", stored.IntervalDays),
		attribute.Int64("version", stored.Version),
		attribute.Int64("sequence", ev.Sequence),
	)
	s.log.Debug("review recorded",
		"learner_id", learnerID,
		"item_id", itemID,
		"outcome", outcome.String(),
		"interval_days", stored.IntervalDays,
		"version", stored.Version,
	)
	return stored, nil
}

// withTimeout applies the configured per-call timeout.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) startSpan(ctx context.Context, name, learnerID, itemID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	base := []attribute.KeyValue{attribute.String("learner_id", learnerID)}
	if itemID != "" {
		base = append(base, attribute.String("item_id", itemID))
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(append(base, attrs...)...))
}

// fail classifies err, records it on the span and logs it at a level that
// matches its kind.
func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error, keysAndValues ...any) *Error {
	e := classify(ctx, op, err)
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Kind.Error())

	kv := append([]any{"op", op, "kind", e.Kind.Error(), "error", err}, keysAndValues...)
	switch e.Kind {
	case ErrStorageUnavailable, ErrTimeout:
		s.log.Error("review operation failed", kv...)
	case ErrConcurrentModification:
		s.log.Warn("review operation conflicted", kv...)
	default:
		s.log.Debug("review operation rejected", kv...)
	}
	return e
}

func validateIDs(op, learnerID, itemID string) error {
	if strings.TrimSpace(learnerID) == "" {
		return validationf(op, "learner id is required")
	}
	if strings.TrimSpace(itemID) == "" {
		return validationf(op, "item id is required")
	}
	return nil
}

func validateLearner(op, learnerID string) error {
	if strings.TrimSpace(learnerID) == "" {
		return validationf(op, "learner id is required")
	}
	return nil
}
