package domain

import (
	"context"
	"time"
)

// HourlyForecast is one entry of a forecast's hourly series, UTC-anchored.
type HourlyForecast struct {
	Time                     time.Time
	WeatherCode              int
	PrecipitationProbability int
}

// Forecast is a provider's daily aggregate for one location, with the hourly
// series covering the requested window.
type Forecast struct {
	WeatherCode                 int
	TempMax                     float64
	TempMin                     float64
	PrecipitationSum            float64
	PrecipitationProbabilityMax int
	MaxWindSpeed                float64
	Hourly                      []HourlyForecast
}

// Forecaster returns a weather forecast for coordinates over a time window.
type Forecaster interface {
	Forecast(ctx context.Context, geo Geo, from, to time.Time) (Forecast, error)
}
