// Package notification announces cascade cancellations to downstream
// consumers over Kafka. Delivery is at-least-once; consumers dedupe on the
// reservation id.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/lab-scheduler/internal/application"
)

// KafkaPublisher writes cancellation records to a Kafka topic. Messages are
// keyed by reservation id so all updates for one reservation land on the same
// partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	}

	return &KafkaPublisher{writer: writer, logger: logger}, nil
}

type cancellationMessage struct {
	ReservationID string `json:"reservation_id"`
	Kind          string `json:"kind"`
	Start         string `json:"start"`
	End           string `json:"end"`
	ReasonCode    string `json:"reason_code"`
	CascadeRootID string `json:"cascade_root_id"`
	RecordedAt    string `json:"recorded_at"`
}

// PublishCancelled writes one cancellation record to the topic.
func (p *KafkaPublisher) PublishCancelled(ctx context.Context, record application.CancellationRecord) error {
	payload, err := json.Marshal(cancellationMessage{
		ReservationID: record.ReservationID,
		Kind:          string(record.Kind),
		Start:         record.Start.UTC().Format(time.RFC3339),
		End:           record.End.UTC().Format(time.RFC3339),
		ReasonCode:    record.ReasonCode,
		CascadeRootID: record.CascadeRootID,
		RecordedAt:    record.RecordedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cancellation record: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.ReservationID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish cancellation for %s: %w", record.ReservationID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NopPublisher drops all notifications. It stands in when no brokers are
// configured, for example in local development.
type NopPublisher struct{}

// PublishCancelled discards the record.
func (NopPublisher) PublishCancelled(context.Context, application.CancellationRecord) error {
	return nil
}
