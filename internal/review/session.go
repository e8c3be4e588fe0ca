package review

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/lingua/internal/item"
)

// resolveConcurrency bounds concurrent catalog lookups per session.
const resolveConcurrency = 8

// GetDueItems returns the learner's due queue as item ids.
func (s *Service) GetDueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]string, error) {
	const op = "get due items"

	if err := validateLearner(op, learnerID); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = s.Now()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.GetDueItems", learnerID, "", attribute.Int("limit", limit))
	defer span.End()

	ids, err := s.selector.DueItems(ctx, learnerID, now, limit)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}
	span.SetAttributes(attribute.Int("items", len(ids)))
	return ids, nil
}

// StartSession builds a study session: the due queue resolved to items,
// without duplicates and capped at limit. Items the catalog no longer
// knows are skipped with a warning.
func (s *Service) StartSession(ctx context.Context, learnerID string, now time.Time, limit int) ([]item.Item, error) {
	const op = "start session"

	if err := validateLearner(op, learnerID); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = s.Now()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.startSpan(ctx, "review.StartSession", learnerID, "", attribute.Int("limit", limit))
	defer span.End()

	ids, err := s.selector.DueItems(ctx, learnerID, now, limit)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}

	ids = dedupe(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	resolved := make([]*item.Item, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			it, err := s.catalog.Resolve(gctx, id)
			if errors.Is(err, item.ErrNotFound) {
				s.log.Warn("due item missing from catalog",
					"learner_id", learnerID,
					"item_id", id,
				)
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i] = &it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, span, op, err, "learner_id", learnerID)
	}

	items := make([]item.Item, 0, len(resolved))
	for _, it := range resolved {
		if it != nil {
			items = append(items, *it)
		}
	}

	span.SetAttributes(attribute.Int("items", len(items)))
	s.log.Info("session started",
		"learner_id", learnerID,
		"items", len(items),
		"limit", limit,
	)
	return items, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
