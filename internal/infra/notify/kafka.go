package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"parkgate/internal/pkg/config"

	"github.com/segmentio/kafka-go"
)

// KafkaBroadcaster publishes staff alerts to the configured topic. Security
// dashboards consume them independently of the request path.
type KafkaBroadcaster struct {
	writer *kafka.Writer
}

// NewKafkaBroadcaster returns nil when no brokers are configured.
func NewKafkaBroadcaster(cfg config.KafkaConfig) (*KafkaBroadcaster, func()) {
	if !cfg.Enabled() {
		return nil, func() {}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	cleanup := func() { _ = writer.Close() }
	return &KafkaBroadcaster{writer: writer}, cleanup
}

type staffEvent struct {
	Kind    string         `json:"kind"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

func (b *KafkaBroadcaster) Broadcast(ctx context.Context, kind, title, message string, data map[string]any) error {
	payload, err := json.Marshal(staffEvent{
		Kind:    kind,
		Title:   title,
		Message: message,
		Data:    data,
		At:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode staff event: %w", err)
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(kind),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish staff event: %w", err)
	}
	return nil
}
