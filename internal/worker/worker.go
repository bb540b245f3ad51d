package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/segmentio/kafka-go"

	"todo-api/internal/config"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

// Invalidator drops cached views for a todo.
type Invalidator interface {
	Invalidate(ctx context.Context, id int64)
}

// Run consumes todo events and invalidates the matching cache entries, so
// writes made by other replicas are not served stale. It returns when ctx is done.
func Run(ctx context.Context, cfg *config.Config, inv Invalidator) {
	if !cfg.EventConsumerEnabled || !cfg.EventsEnabled() {
		logger.Info(ctx, "Event consumer disabled")
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  groupID(),
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", cfg.KafkaTopic)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := HandleMessage(ctx, msg.Value, inv); err != nil {
			// Commit anyway to avoid a poison pill blocking the partition
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

// HandleMessage decodes one event and applies it to the cache.
func HandleMessage(ctx context.Context, payload []byte, inv Invalidator) error {
	var ev models.ToDoEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	switch ev.Type {
	case models.EventCreated, models.EventUpdated, models.EventDeleted:
		inv.Invalidate(ctx, ev.TodoID)
		logger.Debug(ctx, "Cache invalidated from event", "type", ev.Type, "todo_id", ev.TodoID, "request_id", ev.RequestID)
		return nil
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// Every replica needs every event, so each one joins its own consumer group.
func groupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "todo-cache-" + host
}
