package store

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// EventStore is the canonical, deduplicated collection of enriched events,
// keyed by fingerprint and persisted as a single JSON file. One mutex guards
// every read-modify-write so concurrent merges and queries cannot interleave.
type EventStore struct {
	mu     sync.Mutex
	path   string
	events map[string]domain.EnrichedEvent
}

// OpenEventStore loads the store from path, starting empty if the file does
// not exist yet.
func OpenEventStore(path string) (*EventStore, error) {
	s := &EventStore{path: path, events: make(map[string]domain.EnrichedEvent)}
	if err := loadJSON(path, &s.events); err != nil {
		return nil, fmt.Errorf("%w: open event store %s: %v", domain.ErrStoreIO, path, err)
	}
	return s, nil
}

// MergeAll merges a batch of enriched events and persists once, returning
// the events that were newly inserted. On a persist failure the in-memory
// state is rolled back along with the on-disk state, so the store never
// reports events it could not durably hold.
func (s *EventStore) MergeAll(events []domain.EnrichedEvent) ([]domain.EnrichedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := maps.Clone(s.events)
	var inserted []domain.EnrichedEvent
	for _, event := range events {
		if mergeEvent(merged, event) {
			inserted = append(inserted, event)
		}
	}

	if err := saveJSON(s.path, merged); err != nil {
		return nil, fmt.Errorf("%w: write event store: %v", domain.ErrStoreIO, err)
	}
	s.events = merged
	return inserted, nil
}

// Merge merges a single event. Returns whether it was newly inserted.
func (s *EventStore) Merge(event domain.EnrichedEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := maps.Clone(s.events)
	inserted := mergeEvent(merged, event)

	if err := saveJSON(s.path, merged); err != nil {
		return false, fmt.Errorf("%w: write event store: %v", domain.ErrStoreIO, err)
	}
	s.events = merged
	return inserted, nil
}

// mergeEvent inserts event under its fingerprint, or fills only the fields
// absent on the existing canonical record. Populated fields are never
// overwritten.
func mergeEvent(events map[string]domain.EnrichedEvent, event domain.EnrichedEvent) bool {
	fp := event.Fingerprint()
	existing, ok := events[fp]
	if !ok {
		events[fp] = event
		return true
	}

	if existing.Link == "" {
		existing.Link = event.Link
	}
	if existing.Time == "" {
		existing.Time = event.Time
	}
	if existing.Cost == "" {
		existing.Cost = event.Cost
	}
	if existing.Location == "" {
		existing.Location = event.Location
	}
	if existing.Description == "" {
		existing.Description = event.Description
	}
	if existing.FullAddress == "" && event.FullAddress != "" {
		existing.FullAddress = event.FullAddress
		existing.IsEstimatedAddress = event.IsEstimatedAddress
	}
	if existing.Geo == nil {
		existing.Geo = event.Geo
	}
	if existing.Weather == nil {
		existing.Weather = event.Weather
	}

	events[fp] = existing
	return false
}

// Get returns the event stored under fingerprint fp.
func (s *EventStore) Get(fp string) (domain.EnrichedEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[fp]
	return event, ok
}

// Snapshot returns all stored events, ordered by date then title so callers
// see stable output across queries.
func (s *EventStore) Snapshot() []domain.EnrichedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]domain.EnrichedEvent, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Title < events[j].Title
	})
	return events
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Reset wipes the store. Administrative use only.
func (s *EventStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := make(map[string]domain.EnrichedEvent)
	if err := saveJSON(s.path, empty); err != nil {
		return fmt.Errorf("%w: reset event store: %v", domain.ErrStoreIO, err)
	}
	s.events = empty
	return nil
}
