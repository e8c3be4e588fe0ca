package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/review"
	"github.com/abhisek/lingua/internal/srs"
	"github.com/abhisek/lingua/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Service is the review surface served over HTTP. *review.Service
// implements it.
type Service interface {
	Now() time.Time
	Policy() srs.Policy
	SubmitReview(ctx context.Context, learnerID, itemID string, outcome srs.Outcome, now time.Time) (srs.Record, error)
	StartSession(ctx context.Context, learnerID string, now time.Time, limit int) ([]item.Item, error)
	GetDueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]string, error)
	GetSchedulingState(ctx context.Context, learnerID, itemID string) (review.State, error)
	History(ctx context.Context, learnerID, itemID string, opts store.QueryOpts) ([]srs.Event, error)
	Suspend(ctx context.Context, learnerID, itemID string) (srs.Record, error)
	Unsuspend(ctx context.Context, learnerID, itemID string) (srs.Record, error)
	Stats(ctx context.Context, learnerID string, now time.Time) (review.Stats, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    Service
	health Pinger
}

func NewHandler(svc Service, health Pinger) *Handler {
	return &Handler{svc: svc, health: health}
}

type recordView struct {
	srs.Record
	Phase srs.Phase `json:"phase"`
}

func (h *Handler) view(rec srs.Record) recordView {
	return recordView{Record: rec, Phase: rec.Phase(h.svc.Policy())}
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "storage_unavailable", err)
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

// GET /v1/learners/:learner/due?limit=N
func (h *Handler) DueItems(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}
	ids, err := h.svc.GetDueItems(c.Request.Context(), c.Param("learner"), h.svc.Now(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ids})
}

type sessionRequest struct {
	Limit *int `json:"limit"`
}

// POST /v1/learners/:learner/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req sessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	limit := defaultLimit
	if req.Limit != nil {
		limit = min(*req.Limit, maxLimit)
	}

	items, err := h.svc.StartSession(c.Request.Context(), c.Param("learner"), h.svc.Now(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type reviewRequest struct {
	Outcome    string     `json:"outcome" binding:"required"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// POST /v1/learners/:learner/items/:item/reviews
func (h *Handler) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	outcome, err := srs.ParseOutcome(req.Outcome)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_outcome", err)
		return
	}
	now := h.svc.Now()
	if req.OccurredAt != nil {
		now = req.OccurredAt.UTC()
	}

	rec, err := h.svc.SubmitReview(c.Request.Context(), c.Param("learner"), c.Param("item"), outcome, now)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(rec))
}

// GET /v1/learners/:learner/items/:item
func (h *Handler) SchedulingState(c *gin.Context) {
	st, err := h.svc.GetSchedulingState(c.Request.Context(), c.Param("learner"), c.Param("item"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if st.New {
		c.JSON(http.StatusOK, gin.H{"new": true, "phase": st.Phase, "item_id": st.Record.ItemID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"new": false, "phase": st.Phase, "record": st.Record})
}

// GET /v1/learners/:learner/items/:item/history?after=N&limit=N
func (h *Handler) History(c *gin.Context) {
	var opts store.QueryOpts
	if v := c.Query("after"); v != "" {
		after, err := strconv.ParseInt(v, 10, 64)
		if err != nil || after < 0 {
			respondError(c, http.StatusBadRequest, "invalid_after", errors.New("after must be a non-negative sequence number"))
			return
		}
		opts.After = after
	}
	if v := c.Query("limit"); v != "" {
		limit, err := parseLimit(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		opts.Limit = limit
	}

	events, err := h.svc.History(c.Request.Context(), c.Param("learner"), c.Param("item"), opts)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if events == nil {
		events = []srs.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// POST /v1/learners/:learner/items/:item/suspend
func (h *Handler) Suspend(c *gin.Context) {
	rec, err := h.svc.Suspend(c.Request.Context(), c.Param("learner"), c.Param("item"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(rec))
}

// POST /v1/learners/:learner/items/:item/unsuspend
func (h *Handler) Unsuspend(c *gin.Context) {
	rec, err := h.svc.Unsuspend(c.Request.Context(), c.Param("learner"), c.Param("item"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(rec))
}

// GET /v1/learners/:learner/stats
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), c.Param("learner"), h.svc.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	return min(n, maxLimit), nil
}
