// Package http exposes the operational HTTP surface: health, readiness,
// metrics, and the pipeline's public operations for the command layer.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/pipeline"
)

// callerHeader identifies the end caller on operation requests. The
// conversational front-end forwards its chat identity here.
const callerHeader = "X-Caller-ID"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Operations is the pipeline's public operation surface, implemented by the
// planner service.
type Operations interface {
	TriggerCycle(ctx context.Context, callerID string, force bool) (pipeline.CycleResult, error)
	QueryNovelEvents(ctx context.Context, subscriberID string) ([]domain.EnrichedEvent, error)
	ResetSubscriber(ctx context.Context, callerID, subscriberID string) error
	ResetEventStore(ctx context.Context, callerID string) error
	AddSubscriber(ctx context.Context, callerID, id string) error
	RemoveSubscriber(ctx context.Context, callerID, id string) error
	ListSubscribers(ctx context.Context, callerID string) ([]string, error)
}

// Server exposes health, readiness, metrics, and operation endpoints.
type Server struct {
	httpServer *http.Server
	ops        Operations
	logger     *slog.Logger
}

// NewServer creates the operational HTTP server.
func NewServer(addr string, ready ReadinessChecker, ops Operations, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second, // a forced cycle waits on external calls
			IdleTimeout:  60 * time.Second,
		},
		ops:    ops,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /events/novel", s.handleNovelEvents)
	mux.HandleFunc("GET /subscribers", s.handleListSubscribers)
	mux.HandleFunc("POST /subscribers/{id}", s.handleAddSubscriber)
	mux.HandleFunc("DELETE /subscribers/{id}", s.handleRemoveSubscriber)
	mux.HandleFunc("POST /subscribers/{id}/reset", s.handleResetSubscriber)
	mux.HandleFunc("POST /events/reset", s.handleResetEvents)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	result, err := s.ops.TriggerCycle(r.Context(), caller(r), force)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result.Skipped {
		writeJSON(w, http.StatusOK, map[string]any{"status": "not due", "skipped": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "cycle complete",
		"cycle_id":         result.CycleID,
		"fetched":          result.Fetched,
		"new_events":       result.NewEvents,
		"adapter_failures": result.AdapterFailures,
	})
}

func (s *Server) handleNovelEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.ops.QueryNovelEvents(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.EnrichedEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.ops.ListSubscribers(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleAddSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.AddSubscriber(r.Context(), caller(r), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.RemoveSubscriber(r.Context(), caller(r), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleResetSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.ResetSubscriber(r.Context(), caller(r), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleResetEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.ResetEventStore(r.Context(), caller(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// writeError maps the failure taxonomy onto status codes. Internal detail
// never reaches the caller beyond a plain message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrAdminRequired):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreIO):
		s.logger.Error("operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "temporary storage problem, try again later"})
	default:
		s.logger.Error("operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func caller(r *http.Request) string {
	return r.Header.Get(callerHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
