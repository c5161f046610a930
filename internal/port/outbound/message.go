package outbound

import (
	"context"

	"github.com/alxtravel/server/internal/model"
)

// EventPublisherPort defines event publishing operations.
type EventPublisherPort interface {
	// Publish publishes a domain event.
	Publish(ctx context.Context, event interface{}) error
}

// MessagePort defines message queue operations.
type MessagePort interface {
	// Publish publishes a message to a topic.
	Publish(ctx context.Context, topic string, message []byte) error

	// Subscribe consumes a topic until ctx is done, calling handler per message.
	// Concurrent subscribers on the same topic compete for messages.
	Subscribe(ctx context.Context, topic string, handler func([]byte) error) error

	// Close releases the underlying connections.
	Close() error
}

// NotificationPort schedules payment notifications.
type NotificationPort interface {
	// Enqueue schedules delivery without waiting for it.
	Enqueue(ctx context.Context, notification *model.PaymentNotification) error
}

// EmailSenderPort delivers emails.
type EmailSenderPort interface {
	// Send sends a single email.
	Send(ctx context.Context, email *model.Email) error
}
