package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// SeenSetStore tracks, per subscriber, the fingerprints already delivered to
// them. Each subscriber's set lives in its own JSON file under dir, created
// lazily on first use and only ever growing until an explicit reset.
type SeenSetStore struct {
	mu   sync.Mutex
	dir  string
	sets map[string]map[string]bool
}

// OpenSeenSets prepares a seen-set store rooted at dir. Individual sets are
// loaded lazily per subscriber.
func OpenSeenSets(dir string) (*SeenSetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create seen-set dir %s: %v", domain.ErrStoreIO, dir, err)
	}
	return &SeenSetStore{dir: dir, sets: make(map[string]map[string]bool)}, nil
}

// FilterNovel returns the fingerprints the subscriber has not been shown yet
// and marks them as seen, atomically with respect to concurrent calls. The
// returned slice preserves the input order.
func (s *SeenSetStore) FilterNovel(subscriberID string, fingerprints []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.loadLocked(subscriberID)
	if err != nil {
		return nil, err
	}

	novel := make([]string, 0, len(fingerprints))
	for _, fp := range fingerprints {
		if !set[fp] {
			novel = append(novel, fp)
		}
	}
	if len(novel) == 0 {
		return nil, nil
	}

	updated := make(map[string]bool, len(set)+len(novel))
	for fp := range set {
		updated[fp] = true
	}
	for _, fp := range novel {
		updated[fp] = true
	}

	if err := s.persistLocked(subscriberID, updated); err != nil {
		return nil, err
	}
	s.sets[subscriberID] = updated
	return novel, nil
}

// Seen reports whether the subscriber has already been shown fp.
func (s *SeenSetStore) Seen(subscriberID, fp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.loadLocked(subscriberID)
	if err != nil {
		return false, err
	}
	return set[fp], nil
}

// Reset wipes one subscriber's set, so their next query sees every stored
// event as new. The event store itself is untouched.
func (s *SeenSetStore) Reset(subscriberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := make(map[string]bool)
	if err := s.persistLocked(subscriberID, empty); err != nil {
		return err
	}
	s.sets[subscriberID] = empty
	return nil
}

func (s *SeenSetStore) loadLocked(subscriberID string) (map[string]bool, error) {
	if set, ok := s.sets[subscriberID]; ok {
		return set, nil
	}

	var fps []string
	if err := loadJSON(s.setPath(subscriberID), &fps); err != nil {
		return nil, fmt.Errorf("%w: read seen set for %s: %v", domain.ErrStoreIO, subscriberID, err)
	}
	set := make(map[string]bool, len(fps))
	for _, fp := range fps {
		set[fp] = true
	}
	s.sets[subscriberID] = set
	return set, nil
}

func (s *SeenSetStore) persistLocked(subscriberID string, set map[string]bool) error {
	fps := make([]string, 0, len(set))
	for fp := range set {
		fps = append(fps, fp)
	}
	sort.Strings(fps)

	if err := saveJSON(s.setPath(subscriberID), fps); err != nil {
		return fmt.Errorf("%w: write seen set for %s: %v", domain.ErrStoreIO, subscriberID, err)
	}
	return nil
}

// unsafePathChars matches anything not safe in a filename derived from a
// subscriber ID. IDs are numeric chat identifiers in practice.
var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func (s *SeenSetStore) setPath(subscriberID string) string {
	return filepath.Join(s.dir, "seen_"+unsafePathChars.ReplaceAllString(subscriberID, "_")+".json")
}
