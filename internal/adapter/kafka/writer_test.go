package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	event := domain.EnrichedEvent{
		RawEventRecord: domain.RawEventRecord{
			Provider: "library",
			Title:    "Story Time",
			Date:     "Saturday, May 4",
			Status:   "Confirmed",
			Format:   domain.FormatOnsite,
		},
		FullAddress: "Seattle, Washington, United States",
		Geo:         &domain.Geo{Lat: 47.6, Lon: -122.3},
		EnrichedAt:  time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.Fingerprint(), string(msg.Key), "key is the fingerprint for stable partitioning")

	var decoded domain.EnrichedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Story Time", decoded.Title)
	assert.Equal(t, "Seattle, Washington, United States", decoded.FullAddress)
	require.NotNil(t, decoded.Geo)
	assert.Equal(t, 47.6, decoded.Geo.Lat)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "library", headers["provider"])
	assert.Equal(t, "2025-05-01T06:00:00Z", headers["enriched_at"])
}

func TestNotificationWireShape(t *testing.T) {
	data, err := json.Marshal(notification{SubscriberID: "u1", NewEvents: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subscriber_id": "u1", "new_events": 3}`, string(data))
}
