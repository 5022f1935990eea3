package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "gavel/contexts/distribution/payment-splitter-service/application"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("splitter outbox list failed",
			"event", "splitter_outbox_list_failed",
			"module", "distribution/payment-splitter-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("splitter outbox publish failed",
				"event", "splitter_outbox_publish_failed",
				"module", "distribution/payment-splitter-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}

	logger.Info("splitter outbox relay cycle completed",
		"event", "splitter_outbox_relay_completed",
		"module", "distribution/payment-splitter-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
