package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/review"
	"github.com/abhisek/lingua/internal/srs"
	"github.com/abhisek/lingua/internal/store"
)

var day0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	store  *store.Store
	clock  *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(store.Options{DSN: "file:" + name + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cat, err := item.NewMemoryCatalog([]item.Item{
		{ID: "hola", Level: item.A1, Skill: "vocabulary"},
		{ID: "ser-estar", Level: item.A2, Skill: "grammar"},
	})
	require.NoError(t, err)

	now := day0
	svc, err := review.New(review.Deps{
		Records: s.RecordRepo(),
		Events:  s.EventRepo(),
		Catalog: cat,
		Policy:  srs.DefaultPolicy(),
		Logger:  logger.Nop(),
		Clock:   func() time.Time { return now },
	})
	require.NoError(t, err)

	engine := NewRouter(RouterConfig{Handler: NewHandler(svc, s)})
	return &testServer{engine: engine, store: s, clock: &now}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error APIError `json:"error"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	require.NoError(t, ts.store.Close())
	w = ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}

func TestSubmitReviewFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/reviews", `{"outcome":"good"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, rec["interval_days"])
	assert.EqualValues(t, 1, rec["version"])
	assert.Equal(t, "learning", rec["phase"])

	at := day0.AddDate(0, 0, 1).Format(time.RFC3339)
	w = ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/reviews",
		`{"outcome":"Good","occurred_at":"`+at+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec = decode[map[string]any](t, w)
	assert.EqualValues(t, 3, rec["interval_days"])
	assert.Equal(t, "review", rec["phase"])

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/items/hola", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[map[string]any](t, w)
	assert.Equal(t, false, st["new"])
	assert.Equal(t, "review", st["phase"])

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/items/hola/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Events []srs.Event `json:"events"`
	}](t, w)
	require.Len(t, hist.Events, 2)
	assert.Equal(t, srs.Good, hist.Events[1].Outcome)

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/items/hola/history?after=1", "")
	hist = decode[struct {
		Events []srs.Event `json:"events"`
	}](t, w)
	assert.Len(t, hist.Events, 1)
}

func TestSubmitReviewErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown item", "/v1/learners/L1/items/nope/reviews", `{"outcome":"Good"}`, http.StatusNotFound, "unknown_item"},
		{"bad outcome", "/v1/learners/L1/items/hola/reviews", `{"outcome":"Perfect"}`, http.StatusBadRequest, "invalid_outcome"},
		{"missing outcome", "/v1/learners/L1/items/hola/reviews", `{}`, http.StatusBadRequest, "invalid_body"},
		{"bad json", "/v1/learners/L1/items/hola/reviews", `{`, http.StatusBadRequest, "invalid_body"},
		{"blank learner", "/v1/learners/%20/items/hola/reviews", `{"outcome":"Good"}`, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode[errorBody](t, w)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestSchedulingStateNew(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/learners/L1/items/hola", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[map[string]any](t, w)
	assert.Equal(t, true, st["new"])
	assert.Equal(t, "new", st["phase"])
}

func TestDueAndSessions(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/learners/L1/due", "")
	require.Equal(t, http.StatusOK, w.Code)
	due := decode[struct {
		Items []string `json:"items"`
	}](t, w)
	assert.Equal(t, []string{"hola", "ser-estar"}, due.Items)

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/due?limit=1", "")
	due = decode[struct {
		Items []string `json:"items"`
	}](t, w)
	assert.Equal(t, []string{"hola"}, due.Items)

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/due?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/learners/L1/sessions", `{"limit":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[struct {
		Items []item.Item `json:"items"`
	}](t, w)
	require.Len(t, session.Items, 2)
	assert.Equal(t, item.A2, session.Items[1].Level)

	w = ts.do(t, http.MethodPost, "/v1/learners/L1/sessions", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuspendAndStats(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/suspend", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "never reviewed")

	ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/reviews", `{"outcome":"Fail"}`)
	w = ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/suspend", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, w)["suspended"])

	*ts.clock = day0.AddDate(0, 0, 3)
	w = ts.do(t, http.MethodGet, "/v1/learners/L1/due", "")
	due := decode[struct {
		Items []string `json:"items"`
	}](t, w)
	assert.Equal(t, []string{"ser-estar"}, due.Items)

	w = ts.do(t, http.MethodGet, "/v1/learners/L1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[review.Stats](t, w)
	assert.Equal(t, 1, st.Items)
	assert.Equal(t, 1, st.Suspended)
	assert.Equal(t, 1, st.Lapses)
	assert.Equal(t, map[srs.Outcome]int{srs.Fail: 1}, st.Outcomes)

	w = ts.do(t, http.MethodPost, "/v1/learners/L1/items/hola/unsuspend", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["suspended"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&review.Error{Op: "op", Kind: review.ErrUnknownItem}, http.StatusNotFound},
		{&review.Error{Op: "op", Kind: review.ErrInvalidOutcome}, http.StatusBadRequest},
		{&review.Error{Op: "op", Kind: review.ErrValidation}, http.StatusBadRequest},
		{&review.Error{Op: "op", Kind: review.ErrConcurrentModification}, http.StatusConflict},
		{&review.Error{Op: "op", Kind: review.ErrTimeout}, http.StatusGatewayTimeout},
		{&review.Error{Op: "op", Kind: review.ErrStorageUnavailable}, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, code := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.NotEmpty(t, code)
	}
}

// conflictService always loses the race.
type conflictService struct {
	Service
}

func (conflictService) Now() time.Time { return day0 }

func (conflictService) SubmitReview(context.Context, string, string, srs.Outcome, time.Time) (srs.Record, error) {
	return srs.Record{}, &review.Error{Op: "submit review", Kind: review.ErrConcurrentModification}
}

func TestSubmitReviewConflict(t *testing.T) {
	engine := NewRouter(RouterConfig{Handler: NewHandler(conflictService{}, nil)})
	req := httptest.NewRequest(http.MethodPost, "/v1/learners/L1/items/hola/reviews",
		strings.NewReader(`{"outcome":"Good"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "concurrent_modification", decode[errorBody](t, w).Error.Code)
}
