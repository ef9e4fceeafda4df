package pipeline

import (
	"context"
	"log/slog"
)

// LogNotifier is the fallback Notifier used when no delivery transport is
// configured: the broadcast is recorded in the log and nothing is sent.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyNewEvents(_ context.Context, subscriberIDs []string, count int) error {
	n.logger.Info("novelty broadcast", "subscribers", len(subscriberIDs), "new_events", count)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
