package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
)

const forecastBody = `{
  "daily": {
    "time": ["2025-07-10"],
    "weathercode": [61],
    "temperature_2m_max": [18.5],
    "temperature_2m_min": [9.0],
    "precipitation_sum": [2.4],
    "precipitation_probability_max": [40],
    "wind_speed_10m_max": [12.3]
  },
  "hourly": {
    "time": ["2025-07-10T16:00", "2025-07-10T17:00"],
    "precipitation_probability": [30, 90],
    "weathercode": [61, 95]
  }
}`

func testClient(serverURL string) *Client {
	c := NewClient(2*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = serverURL
	return c
}

func TestClientForecast(t *testing.T) {
	t.Run("parses daily and hourly series", func(t *testing.T) {
		var query map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = map[string]string{
				"latitude":   r.URL.Query().Get("latitude"),
				"longitude":  r.URL.Query().Get("longitude"),
				"timezone":   r.URL.Query().Get("timezone"),
				"start_date": r.URL.Query().Get("start_date"),
				"end_date":   r.URL.Query().Get("end_date"),
			}
			w.Write([]byte(forecastBody)) //nolint:errcheck
		}))
		defer srv.Close()

		from := time.Date(2025, time.July, 10, 17, 0, 0, 0, time.UTC)
		forecast, err := testClient(srv.URL).Forecast(context.Background(), domain.Geo{Lat: 47.6, Lon: -122.3}, from, from.Add(2*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, "47.6", query["latitude"])
		assert.Equal(t, "-122.3", query["longitude"])
		assert.Equal(t, "UTC", query["timezone"])
		assert.Equal(t, "2025-07-10", query["start_date"])
		assert.Equal(t, "2025-07-10", query["end_date"])

		assert.Equal(t, 61, forecast.WeatherCode)
		assert.Equal(t, 18.5, forecast.TempMax)
		assert.Equal(t, 9.0, forecast.TempMin)
		assert.Equal(t, 2.4, forecast.PrecipitationSum)
		assert.Equal(t, 40, forecast.PrecipitationProbabilityMax)
		assert.Equal(t, 12.3, forecast.MaxWindSpeed)

		require.Len(t, forecast.Hourly, 2)
		assert.Equal(t, time.Date(2025, time.July, 10, 17, 0, 0, 0, time.UTC), forecast.Hourly[1].Time)
		assert.Equal(t, 95, forecast.Hourly[1].WeatherCode)
		assert.Equal(t, 90, forecast.Hourly[1].PrecipitationProbability)
	})

	t.Run("missing daily data is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"daily": {}, "hourly": {}}`)) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Forecast(context.Background(), domain.Geo{}, time.Now(), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no daily data")
	})

	t.Run("API error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad coordinates", http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Forecast(context.Background(), domain.Geo{}, time.Now(), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}
