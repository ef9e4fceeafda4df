// Package openmeteo implements domain.Forecaster against the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// hourlyTimeLayout is Open-Meteo's zone-less hourly timestamp format.
// With timezone=UTC requested, these are UTC wall-clock times.
const hourlyTimeLayout = "2006-01-02T15:04"

// Client implements domain.Forecaster using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo forecast client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Forecast requests the daily aggregate and hourly series covering [from, to].
// Timestamps are requested in UTC; local-time correction is the caller's
// concern.
func (c *Client) Forecast(ctx context.Context, geo domain.Geo, from, to time.Time) (domain.Forecast, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(geo.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(geo.Lon, 'f', -1, 64)},
		"hourly":     {"precipitation_probability,weathercode"},
		"daily":      {"weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max"},
		"timezone":   {"UTC"},
		"start_date": {from.UTC().Format("2006-01-02")},
		"end_date":   {to.UTC().Format("2006-01-02")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Forecast{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Forecast{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Forecast{}, fmt.Errorf("decode response: %w", err)
	}

	forecast, err := payload.toForecast()
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Forecast{}, err
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return forecast, nil
}

// Open-Meteo API response types. Daily values arrive as parallel arrays, one
// entry per requested day; only the first day is used.

type response struct {
	Daily  daily  `json:"daily"`
	Hourly hourly `json:"hourly"`
}

type daily struct {
	Time                        []string  `json:"time"`
	WeatherCode                 []int     `json:"weathercode"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
	WindSpeedMax                []float64 `json:"wind_speed_10m_max"`
}

type hourly struct {
	Time                     []string `json:"time"`
	PrecipitationProbability []int    `json:"precipitation_probability"`
	WeatherCode              []int    `json:"weathercode"`
}

func (r response) toForecast() (domain.Forecast, error) {
	d := r.Daily
	if len(d.Time) == 0 || len(d.WeatherCode) == 0 {
		return domain.Forecast{}, fmt.Errorf("unexpected response structure: no daily data")
	}

	forecast := domain.Forecast{
		WeatherCode: d.WeatherCode[0],
	}
	if len(d.TemperatureMax) > 0 {
		forecast.TempMax = d.TemperatureMax[0]
	}
	if len(d.TemperatureMin) > 0 {
		forecast.TempMin = d.TemperatureMin[0]
	}
	if len(d.PrecipitationSum) > 0 {
		forecast.PrecipitationSum = d.PrecipitationSum[0]
	}
	if len(d.PrecipitationProbabilityMax) > 0 {
		forecast.PrecipitationProbabilityMax = d.PrecipitationProbabilityMax[0]
	}
	if len(d.WindSpeedMax) > 0 {
		forecast.MaxWindSpeed = d.WindSpeedMax[0]
	}

	for i, ts := range r.Hourly.Time {
		t, err := time.ParseInLocation(hourlyTimeLayout, ts, time.UTC)
		if err != nil {
			continue
		}
		h := domain.HourlyForecast{Time: t}
		if i < len(r.Hourly.WeatherCode) {
			h.WeatherCode = r.Hourly.WeatherCode[i]
		}
		if i < len(r.Hourly.PrecipitationProbability) {
			h.PrecipitationProbability = r.Hourly.PrecipitationProbability[i]
		}
		forecast.Hourly = append(forecast.Hourly, h)
	}

	return forecast, nil
}
