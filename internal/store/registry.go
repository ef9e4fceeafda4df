package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// SubscriberRegistry is the persisted set of subscriber identities authorized
// to use the pipeline's operations. Mutations go through administrative
// operations only.
type SubscriberRegistry struct {
	mu   sync.Mutex
	path string
	ids  map[string]bool
}

// OpenRegistry loads the registry from path, starting empty if the file does
// not exist yet.
func OpenRegistry(path string) (*SubscriberRegistry, error) {
	var ids []string
	if err := loadJSON(path, &ids); err != nil {
		return nil, fmt.Errorf("%w: open subscriber registry %s: %v", domain.ErrStoreIO, path, err)
	}

	r := &SubscriberRegistry{path: path, ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		r.ids[id] = true
	}
	return r, nil
}

// Add registers a subscriber. Adding an existing subscriber is a no-op.
func (r *SubscriberRegistry) Add(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ids[id] {
		return nil
	}
	r.ids[id] = true
	if err := r.persistLocked(); err != nil {
		delete(r.ids, id)
		return err
	}
	return nil
}

// Remove deregisters a subscriber. Removing an unknown subscriber is a no-op.
func (r *SubscriberRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ids[id] {
		return nil
	}
	delete(r.ids, id)
	if err := r.persistLocked(); err != nil {
		r.ids[id] = true
		return err
	}
	return nil
}

// Contains reports whether id is a registered subscriber.
func (r *SubscriberRegistry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ids[id]
}

// List returns all registered subscriber IDs, sorted.
func (r *SubscriberRegistry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *SubscriberRegistry) persistLocked() error {
	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := saveJSON(r.path, ids); err != nil {
		return fmt.Errorf("%w: write subscriber registry: %v", domain.ErrStoreIO, err)
	}
	return nil
}
