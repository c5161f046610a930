package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alxtravel/server/internal/port/outbound"
)

// StateChangeForwarder republishes payment state changes on a message topic
// so that services outside this process can react to them.
type StateChangeForwarder struct {
	messages outbound.MessagePort
	topic    string
}

// NewStateChangeForwarder creates a forwarder writing to topic.
func NewStateChangeForwarder(messages outbound.MessagePort, topic string) *StateChangeForwarder {
	return &StateChangeForwarder{messages: messages, topic: topic}
}

// Handles returns the payment state event types.
func (f *StateChangeForwarder) Handles() []string {
	return []string{TypePaymentCompleted, TypePaymentFailed, TypePaymentRefunded}
}

// Handle serialises the event and publishes it.
func (f *StateChangeForwarder) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	if err := f.messages.Publish(ctx, f.topic, body); err != nil {
		return fmt.Errorf("forward %s: %w", event.EventType(), err)
	}
	return nil
}
