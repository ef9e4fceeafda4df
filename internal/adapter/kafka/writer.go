// Package kafka publishes pipeline output to Kafka: newly merged events to
// an event topic for downstream consumers, and the novelty broadcast to a
// notification topic the messaging front-end consumes.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/lmiguelgato/ParentPlanner/internal/config"
	"github.com/lmiguelgato/ParentPlanner/internal/domain"
)

// Writer publishes newly merged events to the event topic.
// It implements pipeline.EventSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the events in a single WriteMessages
// call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, events []domain.EnrichedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnrichedEvent into a Kafka message keyed by
// its fingerprint, so replays and duplicate cycles land on the same partition.
func serializeToMessage(event domain.EnrichedEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enriched event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Fingerprint()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "provider", Value: []byte(event.Provider)},
			{Key: "enriched_at", Value: []byte(event.EnrichedAt.Format(time.RFC3339))},
		},
	}, nil
}

// Notifier publishes the broadcast novelty count, one message per
// subscriber, to the notification topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotifyTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// notification is the wire shape consumed by the messaging front-end.
type notification struct {
	SubscriberID string `json:"subscriber_id"`
	NewEvents    int    `json:"new_events"`
}

// NotifyNewEvents publishes one message per registered subscriber carrying
// the same new-event count. The broadcast is deliberately not personalized;
// the pull path computes per-subscriber diffs.
func (n *Notifier) NotifyNewEvents(ctx context.Context, subscriberIDs []string, count int) error {
	if len(subscriberIDs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(subscriberIDs))
	for i, id := range subscriberIDs {
		data, err := json.Marshal(notification{SubscriberID: id, NewEvents: count})
		if err != nil {
			return fmt.Errorf("serialize notification: %w", err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(id),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "new_events", Value: []byte(strconv.Itoa(count))},
			},
		}
	}
	return n.writer.WriteMessages(ctx, msgs...)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}
