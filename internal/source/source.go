// Package source defines the adapter contract for upstream listing providers
// and the generic adapters the service ships with. The per-provider scraping
// lives upstream; adapters here consume whatever feed a provider exposes and
// hand back raw records untouched.
package source

import (
	"context"
	"errors"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// Source is one upstream provider of raw event listings.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawEventRecord, error)
}

// Registry keeps track of the configured sources.
type Registry struct {
	sources []Source
}

// NewRegistry builds a registry with the provided sources.
func NewRegistry(sources ...Source) (*Registry, error) {
	if len(sources) == 0 {
		return nil, errors.New("source: at least one source is required")
	}
	return &Registry{sources: sources}, nil
}

// Add registers another source.
func (r *Registry) Add(s Source) {
	r.sources = append(r.sources, s)
}

// All returns the registered sources. Fetch fan-out and failure isolation is
// the orchestrator's job, so no aggregate fetch lives here.
func (r *Registry) All() []Source {
	return r.sources
}
