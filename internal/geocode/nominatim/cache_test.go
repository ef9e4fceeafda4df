package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
)

type countingGeocoder struct {
	calls   int
	results map[string]domain.GeocodeResult
	err     error
}

func (g *countingGeocoder) Geocode(_ context.Context, query string) (domain.GeocodeResult, error) {
	g.calls++
	if g.err != nil {
		return domain.GeocodeResult{}, g.err
	}
	return g.results[query], nil
}

func TestCachedGeocoder(t *testing.T) {
	t.Run("repeat query served from cache", func(t *testing.T) {
		inner := &countingGeocoder{results: map[string]domain.GeocodeResult{
			"Seattle, WA, USA": {Lat: 47.6, Lon: -122.3, DisplayName: "Seattle, Washington, United States"},
		}}
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		for range 3 {
			result, err := cached.Geocode(context.Background(), "Seattle, WA, USA")
			require.NoError(t, err)
			assert.Equal(t, 47.6, result.Lat)
		}
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		inner := &countingGeocoder{}
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		for range 2 {
			result, err := cached.Geocode(context.Background(), "nowhere")
			require.NoError(t, err)
			assert.Empty(t, result.DisplayName)
		}
		assert.Equal(t, 2, inner.calls, "unresolved queries should retry upstream")
	})

	t.Run("errors pass through uncached", func(t *testing.T) {
		inner := &countingGeocoder{err: errors.New("boom")}
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		_, err := cached.Geocode(context.Background(), "anything")
		require.Error(t, err)
		_, err = cached.Geocode(context.Background(), "anything")
		require.Error(t, err)
		assert.Equal(t, 2, inner.calls)
	})
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", domain.GeocodeResult{DisplayName: "A"})
	c.put("b", domain.GeocodeResult{DisplayName: "B"})

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", domain.GeocodeResult{DisplayName: "C"})

	_, ok = c.get("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}
