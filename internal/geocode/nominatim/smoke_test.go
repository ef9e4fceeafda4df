//go:build nominatim

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/observability"
)

// These tests hit the real Nominatim API; mind the one-request-per-second
// usage policy. Run with: go test -tags=nominatim ./internal/geocode/nominatim/ -v -count=1

func smokeClient() *Client {
	return NewClient("ParentPlannerBot/1.0 (smoke test)", 10*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestSmoke_Geocode(t *testing.T) {
	c := smokeClient()

	result, err := c.Geocode(context.Background(), "Space Needle, Seattle, WA, USA")
	require.NoError(t, err)

	assert.InDelta(t, 47.62, result.Lat, 0.1, "lat should be near Seattle Center")
	assert.InDelta(t, -122.35, result.Lon, 0.1, "lon should be near Seattle Center")
	assert.Contains(t, result.DisplayName, "Washington")
	assert.Contains(t, result.DisplayName, "United States")
}

func TestSmoke_GeocodeMiss(t *testing.T) {
	c := smokeClient()

	result, err := c.Geocode(context.Background(), "zzzz no such place zzzz qqq")
	require.NoError(t, err)
	assert.Empty(t, result.DisplayName)
}
