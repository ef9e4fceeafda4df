package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// StaticFile serves raw event records from a JSON file on disk. Useful for
// local development and for providers whose scraper drops its output as a
// file instead of serving it.
type StaticFile struct {
	name string
	path string
}

// NewStaticFile creates a file-backed source.
func NewStaticFile(name, path string) *StaticFile {
	return &StaticFile{name: name, path: path}
}

func (f *StaticFile) Name() string { return f.name }

// Fetch reads and decodes the file on every call, so a refreshed file is
// picked up by the next cycle.
func (f *StaticFile) Fetch(_ context.Context) ([]domain.RawEventRecord, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}

	var records []domain.RawEventRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode feed file: %w", err)
	}

	return stamp(f.name, records), nil
}
