package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ outbound.MessagePort = (*KafkaQueue)(nil)

// KafkaQueue is a MessagePort over Kafka topics. Subscribers share a consumer
// group and commit offsets only after the handler returns.
type KafkaQueue struct {
	brokers []string
	groupID string
	writer  *kafka.Writer
	logger  *zap.Logger
}

// NewKafkaQueue creates a Kafka-backed queue.
func NewKafkaQueue(brokers []string, groupID string, logger *zap.Logger) *KafkaQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaQueue{
		brokers: brokers,
		groupID: groupID,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger.Named("kafka-queue"),
	}
}

// Publish writes message to topic.
func (q *KafkaQueue) Publish(ctx context.Context, topic string, message []byte) error {
	if err := q.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Value: message}); err != nil {
		return fmt.Errorf("kafka publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe reads topic as part of the consumer group until ctx is done.
func (q *KafkaQueue) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.brokers,
		GroupID:  q.groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			q.logger.Error("kafka fetch failed", zap.String("topic", topic), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := handler(msg.Value); err != nil {
			q.logger.Warn("message handler failed",
				zap.String("topic", topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			q.logger.Error("kafka commit failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Close flushes and closes the writer.
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}
