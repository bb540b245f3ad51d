package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"

	"todo-api/internal/config"
	"todo-api/internal/metrics"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const eventTypeHeader = "event_type"

// EnsureTopic creates the events topic with the configured partitions.
// Failure is logged only: the topic may already exist or be auto-created.
func EnsureTopic(ctx context.Context, cfg *config.Config) {
	if !cfg.EventsEnabled() {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaTopic, "partitions", cfg.KafkaPartitions)
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits ToDoEvents after committed writes. A nil *Publisher drops events.
type Publisher struct {
	w       MessageWriter
	metrics *metrics.Metrics
	// async writers report delivery through Completion, not WriteMessages.
	async bool
}

// NewPublisher returns a Kafka-backed publisher, or nil when events are disabled.
// Delivery outcomes are counted in m once the broker acknowledges or rejects a batch.
func NewPublisher(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *Publisher {
	if !cfg.EventsEnabled() {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 0,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	p := &Publisher{w: w, metrics: m, async: true}
	w.Completion = p.completed
	logger.Info(ctx, "Kafka producer initialized", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	return p
}

// NewPublisherWithWriter wraps a synchronous writer: a nil error from
// WriteMessages counts as delivered.
func NewPublisherWithWriter(w MessageWriter, m *metrics.Metrics) *Publisher {
	return &Publisher{w: w, metrics: m}
}

// Publish sends ev keyed by todo id, so events for one todo keep their order.
func (p *Publisher) Publish(ctx context.Context, ev *models.ToDoEvent) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.metrics.ObserveEvent(ev.Type, err)
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(strconv.FormatInt(ev.TodoID, 10)),
		Value:   payload,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(ev.Type)}},
	})
	if err != nil || !p.async {
		p.metrics.ObserveEvent(ev.Type, err)
	}
	return err
}

// completed is the async writer's Completion callback.
func (p *Publisher) completed(msgs []kafka.Message, err error) {
	if err != nil {
		logger.Error(context.Background(), "Kafka async write failed", "error", err, "messages", len(msgs))
	}
	for _, msg := range msgs {
		p.metrics.ObserveEvent(eventType(msg), err)
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == eventTypeHeader {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
