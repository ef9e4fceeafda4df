// Package planner exposes the pipeline's public operations to the command
// layer: cycle triggering, per-subscriber novelty queries, and the
// administrative subscriber and store management. Every operation either
// completes its described effect or leaves state unchanged.
package planner

import (
	"context"
	"log/slog"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
	"github.com/lmiguelgato/ParentPlanner/internal/pipeline"
	"github.com/lmiguelgato/ParentPlanner/internal/store"
)

// Service implements the operations the command layer calls into.
type Service struct {
	events      *store.EventStore
	seen        *store.SeenSetStore
	subscribers *store.SubscriberRegistry
	orch        *pipeline.Orchestrator
	adminID     string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewService wires the operation surface.
func NewService(
	events *store.EventStore,
	seen *store.SeenSetStore,
	subscribers *store.SubscriberRegistry,
	orch *pipeline.Orchestrator,
	adminID string,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		events:      events,
		seen:        seen,
		subscribers: subscribers,
		orch:        orch,
		adminID:     adminID,
		logger:      logger,
		metrics:     metrics,
	}
}

// TriggerCycle runs a refresh cycle on behalf of the administrator. With
// force true the cycle runs regardless of schedule; otherwise it runs only
// if the refresh interval has elapsed.
func (s *Service) TriggerCycle(ctx context.Context, callerID string, force bool) (pipeline.CycleResult, error) {
	if err := s.requireAdmin(callerID, "trigger_cycle"); err != nil {
		return pipeline.CycleResult{}, err
	}
	return s.orch.RunCycle(ctx, force)
}

// QueryNovelEvents returns the events currently in the store that the
// subscriber has not been shown yet, marking them as seen. It never triggers
// fetching or enrichment; the orchestrator keeps the store fresh.
func (s *Service) QueryNovelEvents(_ context.Context, subscriberID string) ([]domain.EnrichedEvent, error) {
	if err := s.requireSubscriber(subscriberID, "query_novel_events"); err != nil {
		return nil, err
	}
	s.metrics.NoveltyQueries.Inc()

	events := s.events.Snapshot()
	fingerprints := make([]string, len(events))
	byFingerprint := make(map[string]domain.EnrichedEvent, len(events))
	for i, event := range events {
		fp := event.Fingerprint()
		fingerprints[i] = fp
		byFingerprint[fp] = event
	}

	novel, err := s.seen.FilterNovel(subscriberID, fingerprints)
	if err != nil {
		return nil, err
	}

	result := make([]domain.EnrichedEvent, 0, len(novel))
	for _, fp := range novel {
		result = append(result, byFingerprint[fp])
	}

	s.metrics.NovelEventsReturned.Add(float64(len(result)))
	s.logger.Info("novelty query served", "subscriber", subscriberID, "novel", len(result), "store_size", len(events))
	return result, nil
}

// ResetSubscriber wipes one subscriber's seen set, so their next query
// returns every stored event as new. Subscribers may reset themselves; the
// administrator may reset anyone.
func (s *Service) ResetSubscriber(_ context.Context, callerID, subscriberID string) error {
	if s.adminID == "" || callerID != s.adminID {
		if callerID != subscriberID {
			s.denied(callerID, "reset_subscriber")
			return domain.ErrAdminRequired
		}
		if err := s.requireSubscriber(callerID, "reset_subscriber"); err != nil {
			return err
		}
	}

	if err := s.seen.Reset(subscriberID); err != nil {
		return err
	}
	s.logger.Info("subscriber seen set reset", "subscriber", subscriberID)
	return nil
}

// ResetEventStore wipes the canonical event store. Administrative use only;
// subscriber seen sets are untouched.
func (s *Service) ResetEventStore(_ context.Context, callerID string) error {
	if err := s.requireAdmin(callerID, "reset_event_store"); err != nil {
		return err
	}
	if err := s.events.Reset(); err != nil {
		return err
	}
	s.logger.Info("event store reset", "by", callerID)
	return nil
}

// AddSubscriber registers a subscriber identity. Administrative use only.
func (s *Service) AddSubscriber(_ context.Context, callerID, id string) error {
	if err := s.requireAdmin(callerID, "add_subscriber"); err != nil {
		return err
	}
	if err := s.subscribers.Add(id); err != nil {
		return err
	}
	s.logger.Info("subscriber added", "subscriber", id)
	return nil
}

// RemoveSubscriber deregisters a subscriber identity. Administrative use only.
func (s *Service) RemoveSubscriber(_ context.Context, callerID, id string) error {
	if err := s.requireAdmin(callerID, "remove_subscriber"); err != nil {
		return err
	}
	if err := s.subscribers.Remove(id); err != nil {
		return err
	}
	s.logger.Info("subscriber removed", "subscriber", id)
	return nil
}

// ListSubscribers returns all registered subscriber IDs. Administrative use only.
func (s *Service) ListSubscribers(_ context.Context, callerID string) ([]string, error) {
	if err := s.requireAdmin(callerID, "list_subscribers"); err != nil {
		return nil, err
	}
	return s.subscribers.List(), nil
}

func (s *Service) requireAdmin(callerID, op string) error {
	if s.adminID == "" || callerID != s.adminID {
		s.denied(callerID, op)
		return domain.ErrAdminRequired
	}
	return nil
}

func (s *Service) requireSubscriber(callerID, op string) error {
	if s.adminID != "" && callerID == s.adminID {
		return nil
	}
	if !s.subscribers.Contains(callerID) {
		s.denied(callerID, op)
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *Service) denied(callerID, op string) {
	s.logger.Warn("operation denied", "caller", callerID, "operation", op)
}
