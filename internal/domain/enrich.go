package domain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultEventWindow is the forecast window used when a listing carries no
// parseable start time.
const DefaultEventWindow = 2 * time.Hour

// Enricher combines geocoding and weather context onto raw listings.
// A nil geocoder or forecaster disables that enrichment entirely.
type Enricher struct {
	geocoder   Geocoder
	forecaster Forecaster
	region     RegionRule
	window     time.Duration
	logger     *slog.Logger
}

// NewEnricher creates an Enricher. window <= 0 falls back to DefaultEventWindow.
func NewEnricher(geocoder Geocoder, forecaster Forecaster, region RegionRule, window time.Duration, logger *slog.Logger) *Enricher {
	if window <= 0 {
		window = DefaultEventWindow
	}
	return &Enricher{
		geocoder:   geocoder,
		forecaster: forecaster,
		region:     region,
		window:     window,
		logger:     logger,
	}
}

// Enrich augments one raw record with resolved address and weather context.
// It never fails past its boundary: any geocode or weather problem downgrades
// to an event with the corresponding fields absent.
func (e *Enricher) Enrich(ctx context.Context, rec RawEventRecord) EnrichedEvent {
	rec = rec.WithDefaults()
	event := EnrichedEvent{
		RawEventRecord: rec,
		EnrichedAt:     clock.Now().UTC(),
	}

	// Online listings have no venue to resolve and no weather that matters.
	if rec.Format == FormatOnline {
		return event
	}

	normalized := NormalizeAddress(rec.Location)
	if PlausibleAddress(normalized) {
		e.resolveAddress(ctx, &event, normalized)
	}

	if event.Geo != nil {
		e.attachWeather(ctx, &event)
	}
	return event
}

// resolveAddress geocodes the normalized location with region context and
// validation. On a miss it retries once with the last three address
// components, then once with the configured region description, accepting
// either coarser result as an estimated address.
func (e *Enricher) resolveAddress(ctx context.Context, event *EnrichedEvent, normalized string) {
	if e.geocoder == nil {
		return
	}

	query := e.region.WithContext(normalized)
	result, err := e.geocoder.Geocode(ctx, query)
	if err != nil {
		e.logger.Warn("geocode request failed",
			"provider", event.Provider,
			"title", event.Title,
			"query", query,
			"error", err,
		)
	} else if result.DisplayName != "" && e.region.Accepts(result.DisplayName) {
		event.FullAddress = result.DisplayName
		event.Geo = &Geo{Lat: result.Lat, Lon: result.Lon}
		return
	}

	// City-level fallback: coarse, but good enough for weather and maps.
	fallback := FallbackQuery(query)
	result, err = e.geocoder.Geocode(ctx, fallback)
	if err != nil {
		e.logger.Warn("fallback geocode request failed",
			"provider", event.Provider,
			"title", event.Title,
			"query", fallback,
			"error", err,
		)
		return
	}
	if result.DisplayName == "" {
		e.logger.Debug("geocode miss", "provider", event.Provider, "title", event.Title, "query", fallback)
		if e.region.DefaultLocation == "" {
			return
		}
		// Last resort: the region itself, so weather still has coordinates.
		result, err = e.geocoder.Geocode(ctx, e.region.DefaultLocation)
		if err != nil || result.DisplayName == "" {
			return
		}
	}

	event.FullAddress = result.DisplayName
	event.Geo = &Geo{Lat: result.Lat, Lon: result.Lon}
	event.IsEstimatedAddress = true
}

// attachWeather requests a forecast for the event's time window and fills the
// snapshot from the daily aggregate, attaching the hourly entry whose local
// hour matches the event's estimated hour when one exists.
func (e *Enricher) attachWeather(ctx context.Context, event *EnrichedEvent) {
	if e.forecaster == nil {
		return
	}

	from, to, hour, hasHour := e.eventWindow(clock.Now().UTC(), event.Time)

	forecast, err := e.forecaster.Forecast(ctx, *event.Geo, from, to)
	if err != nil {
		e.logger.Warn("weather unavailable",
			"provider", event.Provider,
			"title", event.Title,
			"lat", event.Geo.Lat,
			"lon", event.Geo.Lon,
			"error", err,
		)
		return
	}

	snapshot := &WeatherSnapshot{
		Summary:                      WeatherDescription(forecast.WeatherCode),
		TempMax:                      forecast.TempMax,
		TempMin:                      forecast.TempMin,
		PrecipitationMM:              forecast.PrecipitationSum,
		PrecipitationProbabilityText: fmt.Sprintf("%d%% chance of rain", forecast.PrecipitationProbabilityMax),
		MaxWindSpeed:                 forecast.MaxWindSpeed,
	}

	if hasHour {
		for _, h := range forecast.Hourly {
			if PacificLocalTime(h.Time).Hour() != hour {
				continue
			}
			snapshot.Hourly = &HourlyWeather{
				LocalHour:                hour,
				Summary:                  WeatherDescription(h.WeatherCode),
				PrecipitationProbability: h.PrecipitationProbability,
			}
			break
		}
	}

	event.Weather = snapshot
}

// eventWindow derives the forecast window. With a parseable start time the
// window is anchored at that local hour today; otherwise it is "now" through
// the configured duration.
func (e *Enricher) eventWindow(now time.Time, timeText string) (from, to time.Time, hour int, hasHour bool) {
	hour, hasHour = parseEventHour(timeText)
	if !hasHour {
		return now, now.Add(e.window), 0, false
	}

	local := PacificLocalTime(now)
	offset := local.Sub(now)
	from = time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, time.UTC).Add(-offset)
	return from, from.Add(e.window), hour, true
}

// eventTimeRe matches the start of listing time text like "10:30 AM" or
// "1:00 PM - 3:00 PM". "All day" and other free text fail the match.
var eventTimeRe = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)?`)

// parseEventHour extracts the 24-hour start hour from free-text listing time.
func parseEventHour(s string) (int, bool) {
	m := eventTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, false
	}

	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, true
}
