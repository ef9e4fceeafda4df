package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// HTTPFeed fetches raw event records from a provider endpoint serving a JSON
// array of records (the scraper side-cars publish their results this way).
type HTTPFeed struct {
	name       string
	url        string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFeed creates an HTTP feed source.
func NewHTTPFeed(name, url string, timeout time.Duration) *HTTPFeed {
	return &HTTPFeed{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "ParentPlanner/1.0",
	}
}

func (f *HTTPFeed) Name() string { return f.name }

// Fetch downloads and decodes the provider feed. Records come back with the
// provider name stamped and defaults applied.
func (f *HTTPFeed) Fetch(ctx context.Context) ([]domain.RawEventRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, body)
	}

	var records []domain.RawEventRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return stamp(f.name, records), nil
}

// stamp sets the provider name and fills record defaults.
func stamp(provider string, records []domain.RawEventRecord) []domain.RawEventRecord {
	out := make([]domain.RawEventRecord, 0, len(records))
	for _, rec := range records {
		rec.Provider = provider
		out = append(out, rec.WithDefaults())
	}
	return out
}
