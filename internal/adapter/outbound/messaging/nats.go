package messaging

import (
	"context"
	"fmt"

	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var _ outbound.MessagePort = (*NatsQueue)(nil)

// NatsQueue is a MessagePort over NATS core subjects. Subscribers join a
// queue group so each message goes to one of them.
type NatsQueue struct {
	conn       *nats.Conn
	queueGroup string
	logger     *zap.Logger
}

// NewNatsQueue connects to the NATS server at url.
func NewNatsQueue(url, queueGroup string, logger *zap.Logger) (*NatsQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("nats-queue")

	conn, err := nats.Connect(url,
		nats.Name("alxtravel-payments"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NatsQueue{conn: conn, queueGroup: queueGroup, logger: log}, nil
}

// Publish publishes message on the subject named topic.
func (q *NatsQueue) Publish(_ context.Context, topic string, message []byte) error {
	if err := q.conn.Publish(topic, message); err != nil {
		return fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins the queue group on topic until ctx is done.
func (q *NatsQueue) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	sub, err := q.conn.QueueSubscribe(topic, q.queueGroup, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.logger.Warn("message handler failed", zap.String("topic", topic), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", topic, err)
	}

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		q.logger.Warn("nats unsubscribe failed", zap.String("topic", topic), zap.Error(err))
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (q *NatsQueue) Close() error {
	return q.conn.Drain()
}
