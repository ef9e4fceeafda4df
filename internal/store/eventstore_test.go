package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

func newEvent(title, date string) domain.EnrichedEvent {
	return domain.EnrichedEvent{
		RawEventRecord: domain.RawEventRecord{
			Provider: "library",
			Title:    title,
			Date:     date,
			Status:   "Confirmed",
			Format:   domain.FormatOnsite,
		},
		EnrichedAt: time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC),
	}
}

func openTestStore(t *testing.T) *EventStore {
	t.Helper()
	s, err := OpenEventStore(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	return s
}

func TestEventStoreMergeAll(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.MergeAll([]domain.EnrichedEvent{
		newEvent("Story Time", "Saturday, May 4"),
		newEvent("Art Class", "Sunday, May 5"),
	})
	require.NoError(t, err)
	assert.Len(t, inserted, 2)
	assert.Equal(t, 2, s.Len())

	// The same batch again inserts nothing.
	inserted, err = s.MergeAll([]domain.EnrichedEvent{
		newEvent("Story Time", "Saturday, May 4"),
		newEvent("Art Class", "Sunday, May 5"),
	})
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 2, s.Len())
}

func TestEventStoreMergeFillsAbsentFieldsOnly(t *testing.T) {
	s := openTestStore(t)

	first := newEvent("Story Time", "Saturday, May 4")
	first.Cost = "Free"
	_, err := s.Merge(first)
	require.NoError(t, err)

	second := newEvent("Story Time", "Saturday, May 4")
	second.Cost = "$5"
	second.Link = "https://library.example/story-time"
	second.Geo = &domain.Geo{Lat: 47.6, Lon: -122.3}
	inserted, err := s.Merge(second)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, ok := s.Get(first.Fingerprint())
	require.True(t, ok)
	assert.Equal(t, "Free", got.Cost, "populated field must not be overwritten")
	assert.Equal(t, "https://library.example/story-time", got.Link)
	require.NotNil(t, got.Geo)
	assert.Equal(t, 47.6, got.Geo.Lat)
}

func TestEventStoreMergeAddressTravelsWithEstimateFlag(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Merge(newEvent("Music Hour", "May 6"))
	require.NoError(t, err)

	update := newEvent("Music Hour", "May 6")
	update.FullAddress = "Washington, United States"
	update.IsEstimatedAddress = true
	_, err = s.Merge(update)
	require.NoError(t, err)

	got, ok := s.Get(update.Fingerprint())
	require.True(t, ok)
	assert.Equal(t, "Washington, United States", got.FullAddress)
	assert.True(t, got.IsEstimatedAddress)
}

func TestEventStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	original := newEvent("Story Time", "Saturday, May 4")
	original.FullAddress = "Seattle, Washington, United States"
	original.Geo = &domain.Geo{Lat: 47.6, Lon: -122.3}
	original.Weather = &domain.WeatherSnapshot{
		Summary:                      "Slight rain",
		TempMax:                      18.5,
		PrecipitationProbabilityText: "40% chance of rain",
		Hourly:                       &domain.HourlyWeather{LocalHour: 10, Summary: "Thunderstorm", PrecipitationProbability: 90},
	}

	s, err := OpenEventStore(path)
	require.NoError(t, err)
	_, err = s.MergeAll([]domain.EnrichedEvent{original})
	require.NoError(t, err)

	reopened, err := OpenEventStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	got, ok := reopened.Get(domain.Fingerprint("Story Time", "Saturday, May 4"))
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(original, got), "event must round-trip through disk unchanged")
}

func TestEventStoreSnapshotOrdering(t *testing.T) {
	s := openTestStore(t)

	_, err := s.MergeAll([]domain.EnrichedEvent{
		newEvent("Zoo Day", "2025-05-10"),
		newEvent("Art Class", "2025-05-10"),
		newEvent("Story Time", "2025-05-04"),
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "Story Time", snap[0].Title)
	assert.Equal(t, "Art Class", snap[1].Title)
	assert.Equal(t, "Zoo Day", snap[2].Title)
}

func TestEventStoreReset(t *testing.T) {
	s := openTestStore(t)

	_, err := s.MergeAll([]domain.EnrichedEvent{newEvent("Story Time", "Saturday, May 4")})
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	assert.Zero(t, s.Len())
}

func TestEventStoreCorruptFileSurfacesStoreError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenEventStore(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreIO)
}
