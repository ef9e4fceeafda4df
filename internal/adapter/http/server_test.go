package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/pipeline"
)

type fakeReadiness struct {
	err error
}

func (f *fakeReadiness) CheckReadiness(_ context.Context) error { return f.err }

type fakeOps struct {
	result   pipeline.CycleResult
	events   []domain.EnrichedEvent
	ids      []string
	err      error
	caller   string
	resetID  string
	removeID string
}

func (f *fakeOps) TriggerCycle(_ context.Context, callerID string, _ bool) (pipeline.CycleResult, error) {
	f.caller = callerID
	return f.result, f.err
}

func (f *fakeOps) QueryNovelEvents(_ context.Context, subscriberID string) ([]domain.EnrichedEvent, error) {
	f.caller = subscriberID
	return f.events, f.err
}

func (f *fakeOps) ResetSubscriber(_ context.Context, callerID, subscriberID string) error {
	f.caller, f.resetID = callerID, subscriberID
	return f.err
}

func (f *fakeOps) ResetEventStore(_ context.Context, callerID string) error {
	f.caller = callerID
	return f.err
}

func (f *fakeOps) AddSubscriber(_ context.Context, callerID, id string) error {
	f.caller, f.resetID = callerID, id
	return f.err
}

func (f *fakeOps) RemoveSubscriber(_ context.Context, callerID, id string) error {
	f.caller, f.removeID = callerID, id
	return f.err
}

func (f *fakeOps) ListSubscribers(_ context.Context, callerID string) ([]string, error) {
	f.caller = callerID
	return f.ids, f.err
}

func newTestServer(ready *fakeReadiness, ops *fakeOps) *Server {
	return NewServer(":0", ready, ops, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, srv *Server, method, path, callerID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if callerID != "" {
		req.Header.Set(callerHeader, callerID)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeReadiness{}, &fakeOps{})
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	ready := &fakeReadiness{err: errors.New("no refresh cycle has completed yet")}
	srv := newTestServer(ready, &fakeOps{})

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready.err = nil
	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("completed cycle", func(t *testing.T) {
		ops := &fakeOps{result: pipeline.CycleResult{CycleID: "c1", Fetched: 5, NewEvents: 2}}
		srv := newTestServer(&fakeReadiness{}, ops)

		rec := do(t, srv, http.MethodPost, "/refresh?force=true", "admin")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", ops.caller)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "c1", body["cycle_id"])
		assert.Equal(t, float64(2), body["new_events"])
	})

	t.Run("not due", func(t *testing.T) {
		ops := &fakeOps{result: pipeline.CycleResult{Skipped: true}}
		srv := newTestServer(&fakeReadiness{}, ops)

		rec := do(t, srv, http.MethodPost, "/refresh", "admin")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "not due")
	})

	t.Run("denied", func(t *testing.T) {
		ops := &fakeOps{err: domain.ErrAdminRequired}
		srv := newTestServer(&fakeReadiness{}, ops)

		rec := do(t, srv, http.MethodPost, "/refresh", "u1")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestNovelEventsEndpoint(t *testing.T) {
	t.Run("returns events", func(t *testing.T) {
		ops := &fakeOps{events: []domain.EnrichedEvent{
			{RawEventRecord: domain.RawEventRecord{Title: "Story Time", Date: "Saturday, May 4"}},
		}}
		srv := newTestServer(&fakeReadiness{}, ops)

		rec := do(t, srv, http.MethodGet, "/events/novel", "u1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", ops.caller)

		var events []domain.EnrichedEvent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		require.Len(t, events, 1)
		assert.Equal(t, "Story Time", events[0].Title)
	})

	t.Run("nothing new yields empty array", func(t *testing.T) {
		srv := newTestServer(&fakeReadiness{}, &fakeOps{})
		rec := do(t, srv, http.MethodGet, "/events/novel", "u1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := newTestServer(&fakeReadiness{}, &fakeOps{err: domain.ErrUnauthorized})
		rec := do(t, srv, http.MethodGet, "/events/novel", "stranger")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSubscriberEndpoints(t *testing.T) {
	ops := &fakeOps{ids: []string{"u1", "u2"}}
	srv := newTestServer(&fakeReadiness{}, ops)

	rec := do(t, srv, http.MethodGet, "/subscribers", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["u1", "u2"]`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/subscribers/u3", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u3", ops.resetID)

	rec = do(t, srv, http.MethodDelete, "/subscribers/u2", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", ops.removeID)

	rec = do(t, srv, http.MethodPost, "/subscribers/u1/reset", "u1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", ops.resetID)
}

func TestResetEventsEndpoint(t *testing.T) {
	t.Run("store failure maps to 500", func(t *testing.T) {
		srv := newTestServer(&fakeReadiness{}, &fakeOps{err: domain.ErrStoreIO})
		rec := do(t, srv, http.MethodPost, "/events/reset", "admin")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "events.json", "internal paths must not leak")
	})

	t.Run("success", func(t *testing.T) {
		srv := newTestServer(&fakeReadiness{}, &fakeOps{})
		rec := do(t, srv, http.MethodPost, "/events/reset", "admin")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
