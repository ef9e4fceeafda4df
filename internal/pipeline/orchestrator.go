// Package pipeline runs the refresh cycle: fan out to source adapters,
// enrich, merge into the event store, and broadcast novelty.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
	"github.com/lmiguelgato/ParentPlanner/internal/source"
	"github.com/lmiguelgato/ParentPlanner/internal/store"
)

// Notifier delivers the broadcast novelty signal: every registered
// subscriber gets the same "N new events" count, regardless of what they
// have individually seen. The personalized diff lives on the pull path.
type Notifier interface {
	NotifyNewEvents(ctx context.Context, subscriberIDs []string, count int) error
}

// EventSink receives newly merged events for downstream consumers.
type EventSink interface {
	PublishBatch(ctx context.Context, events []domain.EnrichedEvent) error
}

// Options wires an Orchestrator. Zero durations and counts fall back to the
// documented defaults.
type Options struct {
	Sources     *source.Registry
	Enricher    *domain.Enricher
	Store       *store.EventStore
	Subscribers *store.SubscriberRegistry
	Notifier    Notifier  // nil disables the broadcast
	Sink        EventSink // nil disables the event sink
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	Clock       clockwork.Clock

	RefreshInterval time.Duration // default 24h
	PollInterval    time.Duration // default 60s
	EnrichWorkers   int           // default 4
}

// CycleResult summarizes one refresh cycle.
type CycleResult struct {
	CycleID         string
	Fetched         int
	NewEvents       int
	AdapterFailures int
	Skipped         bool // true when a non-forced trigger found the interval not yet elapsed
}

// Orchestrator drives refresh cycles: an immediate one at startup, then one
// whenever the refresh interval has elapsed since the last successful cycle,
// checked on a short polling tick. Cycles are serialized; a force trigger
// runs out of schedule but never concurrently with another cycle.
type Orchestrator struct {
	sources     *source.Registry
	enricher    *domain.Enricher
	store       *store.EventStore
	subscribers *store.SubscriberRegistry
	notifier    Notifier
	sink        EventSink
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	interval time.Duration
	tick     time.Duration
	workers  int

	cycleMu sync.Mutex // one cycle at a time

	lastMu      sync.Mutex
	lastSuccess time.Time

	force chan struct{}
	ready atomic.Bool
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 24 * time.Hour
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.EnrichWorkers <= 0 {
		opts.EnrichWorkers = 4
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Orchestrator{
		sources:     opts.Sources,
		enricher:    opts.Enricher,
		store:       opts.Store,
		subscribers: opts.Subscribers,
		notifier:    opts.Notifier,
		sink:        opts.Sink,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		interval:    opts.RefreshInterval,
		tick:        opts.PollInterval,
		workers:     opts.EnrichWorkers,
		force:       make(chan struct{}, 1),
	}
}

// CheckReadiness returns nil once at least one refresh cycle has completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no refresh cycle has completed yet")
	}
	return nil
}

// TriggerNow requests an out-of-schedule cycle from the background loop.
// Non-blocking; a request while one is already pending is coalesced.
func (o *Orchestrator) TriggerNow() {
	select {
	case o.force <- struct{}{}:
	default:
	}
}

// Run executes the timer loop until the context is cancelled. An immediate
// cycle runs at start; afterwards the loop polls every tick and runs a cycle
// once the refresh interval has elapsed since the last successful one. A
// failed cycle leaves the last-success time unchanged, so the next tick
// retries.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.metrics.OrchestratorRunning.Set(1)
	defer o.metrics.OrchestratorRunning.Set(0)
	o.logger.Info("orchestrator started", "refresh_interval", o.interval, "poll_interval", o.tick)

	if _, err := o.RunCycle(ctx, true); err != nil {
		o.logger.Error("startup refresh cycle failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopping", "reason", ctx.Err())
			return nil
		case <-o.force:
			if _, err := o.RunCycle(ctx, true); err != nil {
				o.logger.Error("forced refresh cycle failed", "error", err)
			}
		case <-o.clock.After(o.tick):
			if _, err := o.RunCycle(ctx, false); err != nil {
				o.logger.Error("scheduled refresh cycle failed", "error", err)
			}
		}
	}
}

// RunCycle runs one fetch-enrich-merge-notify pass. With force false the
// cycle is skipped unless the refresh interval has elapsed since the last
// success. Only a store write failure is fatal; adapter and enrichment
// problems are absorbed per the failure policy.
func (o *Orchestrator) RunCycle(ctx context.Context, force bool) (CycleResult, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	if !force && !o.due() {
		return CycleResult{Skipped: true}, nil
	}

	cycleID := uuid.NewString()
	logger := o.logger.With("cycle_id", cycleID)
	start := o.clock.Now()
	logger.Info("refresh cycle starting", "force", force)

	records, failures := o.fetchAll(ctx, logger)
	o.metrics.RecordsFetched.Add(float64(len(records)))

	enriched := o.enrichAll(ctx, records)

	inserted, err := o.store.MergeAll(enriched)
	if err != nil {
		o.metrics.CyclesTotal.WithLabelValues("failure").Inc()
		logger.Error("merge into event store failed", "error", err)
		return CycleResult{CycleID: cycleID}, err
	}

	if len(inserted) > 0 {
		o.notify(ctx, logger, inserted)
	}

	o.metrics.EventsMerged.Add(float64(len(inserted)))
	o.metrics.CyclesTotal.WithLabelValues("success").Inc()
	o.metrics.CycleDuration.Observe(o.clock.Since(start).Seconds())
	o.setLastSuccess(o.clock.Now())
	o.ready.Store(true)

	logger.Info("refresh cycle complete",
		"fetched", len(records),
		"new_events", len(inserted),
		"adapter_failures", failures,
		"store_size", o.store.Len(),
	)

	return CycleResult{
		CycleID:         cycleID,
		Fetched:         len(records),
		NewEvents:       len(inserted),
		AdapterFailures: failures,
	}, nil
}

// fetchAll invokes every source adapter concurrently, one goroutine per
// adapter. A failing adapter contributes zero records and is logged; it
// never aborts the cycle.
func (o *Orchestrator) fetchAll(ctx context.Context, logger *slog.Logger) ([]domain.RawEventRecord, int) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		records  []domain.RawEventRecord
		failures int
	)

	for _, src := range o.sources.All() {
		wg.Add(1)
		go func(src source.Source) {
			defer wg.Done()

			recs, err := src.Fetch(ctx)
			if err != nil {
				adapterErr := &domain.AdapterError{Provider: src.Name(), Err: err}
				logger.Warn("source adapter failed", "provider", src.Name(), "error", adapterErr)
				o.metrics.AdapterFailures.WithLabelValues(src.Name()).Inc()
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}

			logger.Info("source fetched", "provider", src.Name(), "records", len(recs))
			mu.Lock()
			records = append(records, recs...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return records, failures
}

// enrichAll runs enrichment across a bounded worker pool. Each record's
// enrichment is independent, so order is preserved by index.
func (o *Orchestrator) enrichAll(ctx context.Context, records []domain.RawEventRecord) []domain.EnrichedEvent {
	enriched := make([]domain.EnrichedEvent, len(records))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec domain.RawEventRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			enriched[i] = o.enricher.Enrich(ctx, rec)
		}(i, rec)
	}
	wg.Wait()

	o.metrics.EventsEnriched.Add(float64(len(records)))
	return enriched
}

// notify broadcasts the novelty count to all registered subscribers and
// hands the new events to the sink. Delivery failures are logged, never
// fatal: the store merge already succeeded.
func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, inserted []domain.EnrichedEvent) {
	if o.notifier != nil {
		subscribers := o.subscribers.List()
		if len(subscribers) > 0 {
			if err := o.notifier.NotifyNewEvents(ctx, subscribers, len(inserted)); err != nil {
				logger.Warn("novelty broadcast failed", "subscribers", len(subscribers), "error", err)
			}
		}
	}

	if o.sink != nil {
		if err := o.sink.PublishBatch(ctx, inserted); err != nil {
			logger.Warn("event sink publish failed", "events", len(inserted), "error", err)
		}
	}
}

func (o *Orchestrator) due() bool {
	o.lastMu.Lock()
	defer o.lastMu.Unlock()
	if o.lastSuccess.IsZero() {
		return true
	}
	return o.clock.Since(o.lastSuccess) >= o.interval
}

func (o *Orchestrator) setLastSuccess(t time.Time) {
	o.lastMu.Lock()
	o.lastSuccess = t
	o.lastMu.Unlock()
}
