// Command seed reads raw listing records from a JSON file and generates a
// pre-populated event store fixture for the test suites and local runs. It
// uses the actual domain enrichment path (offline, so geocoding and weather
// stay disabled) to ensure the fixture matches real pipeline output.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -in testdata/raw_listings.json \
//	  -out data/events.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input path for raw listing records JSON")
	out := flag.String("out", "", "output path for the event store fixture")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	// Fix the clock for reproducible EnrichedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.May, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	var records []domain.RawEventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing %s: %w", *in, err)
	}
	log.Printf("input: %d raw records", len(records))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enricher := domain.NewEnricher(nil, nil, domain.RegionRule{}, 0, logger)

	enriched := make([]domain.EnrichedEvent, len(records))
	for i, rec := range records {
		enriched[i] = enricher.Enrich(context.Background(), rec)
	}

	events, err := store.OpenEventStore(*out)
	if err != nil {
		return fmt.Errorf("opening event store %s: %w", *out, err)
	}
	inserted, err := events.MergeAll(enriched)
	if err != nil {
		return fmt.Errorf("merging fixture events: %w", err)
	}

	log.Printf("wrote %s: %d new events, %d total", *out, len(inserted), events.Len())
	return nil
}
