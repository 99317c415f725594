package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/floodaura-sync/internal/config"
	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// Publisher forwards real-time messages to a Kafka topic.
// It implements viewmodel.EventSink.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics, now: time.Now}
}

// Publish writes one message synchronously. Messages sharing an id land on
// the same partition, so per-alert order is kept.
func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	km, err := serializeToMessage(msg, p.now())
	if err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, km); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish %s message: %w", msg.Type(), err)
	}
	p.metrics.EventsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a real-time message into a Kafka message.
func serializeToMessage(msg domain.Message, receivedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize realtime message: %w", err)
	}
	km := kafkago.Message{
		Value: data,
		Headers: []kafkago.Header{
			{Key: "message_type", Value: []byte(msg.Type())},
			{Key: "received_at", Value: []byte(receivedAt.UTC().Format(time.RFC3339))},
		},
	}
	if id := msg.ID(); id != "" {
		km.Key = []byte(id)
	}
	return km, nil
}
