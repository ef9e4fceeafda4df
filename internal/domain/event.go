package domain

import "time"

// EventFormat distinguishes in-person listings from virtual ones.
type EventFormat string

const (
	FormatOnsite EventFormat = "Onsite"
	FormatOnline EventFormat = "Online"
)

// RawEventRecord is one listing exactly as a source adapter produced it.
// Date, Time, Cost, and Location are free text in whatever shape the source
// uses; no parsing has happened yet. Records are immutable once produced.
type RawEventRecord struct {
	Provider    string      `json:"provider"`
	Title       string      `json:"title"`
	Link        string      `json:"link,omitempty"`
	Date        string      `json:"date"`
	Time        string      `json:"time,omitempty"`
	Cost        string      `json:"cost,omitempty"`
	Location    string      `json:"location,omitempty"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status"`
	Format      EventFormat `json:"format"`
}

// WithDefaults returns a copy with Status and Format filled in when the
// source left them empty. Sources that don't track a status report
// everything as confirmed, and listings are on-site unless stated otherwise.
func (r RawEventRecord) WithDefaults() RawEventRecord {
	if r.Status == "" {
		r.Status = "Confirmed"
	}
	if r.Format == "" {
		r.Format = FormatOnsite
	}
	return r
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HourlyWeather is the forecast entry matching the event's estimated local hour.
type HourlyWeather struct {
	LocalHour                int    `json:"local_hour"`
	Summary                  string `json:"summary"`
	PrecipitationProbability int    `json:"precipitation_probability"`
}

// WeatherSnapshot holds the daily forecast aggregate for an event's location,
// plus optional hourly detail when the event's time could be matched against
// the forecast's hourly series.
type WeatherSnapshot struct {
	Summary                      string         `json:"summary"`
	TempMax                      float64        `json:"temp_max"`
	TempMin                      float64        `json:"temp_min"`
	PrecipitationMM              float64        `json:"precipitation_mm"`
	PrecipitationProbabilityText string         `json:"precipitation_probability_text"`
	MaxWindSpeed                 float64        `json:"max_wind_speed"`
	Hourly                       *HourlyWeather `json:"hourly,omitempty"`
}

// EnrichedEvent is a RawEventRecord augmented with resolved address and
// weather context. Nil pointers mean the corresponding enrichment was
// skipped or failed; that is a normal outcome, not an error.
type EnrichedEvent struct {
	RawEventRecord

	FullAddress        string           `json:"full_address,omitempty"`
	Geo                *Geo             `json:"geo,omitempty"`
	IsEstimatedAddress bool             `json:"is_estimated_address,omitempty"`
	Weather            *WeatherSnapshot `json:"weather,omitempty"`

	EnrichedAt time.Time `json:"enriched_at"`
}
