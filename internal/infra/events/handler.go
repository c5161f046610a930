package events

import "context"

// Handler processes events of the types it declares.
type Handler interface {
	// Handles returns the event types this handler accepts.
	Handles() []string

	// Handle processes the event. Handlers must tolerate redelivery.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc struct {
	eventTypes []string
	fn         func(context.Context, Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(eventTypes []string, fn func(context.Context, Event) error) *HandlerFunc {
	return &HandlerFunc{eventTypes: eventTypes, fn: fn}
}

// Handles returns the event types this handler accepts.
func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

// Handle calls the wrapped function.
func (h *HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
