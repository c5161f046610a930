package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/alxtravel/server/internal/port/outbound"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when an in-memory topic buffer is full.
	ErrQueueFull = errors.New("message queue full")

	// ErrClosed is returned when publishing to a closed queue.
	ErrClosed = errors.New("message queue closed")
)

var _ outbound.MessagePort = (*MemoryQueue)(nil)

// MemoryQueue is a process-local MessagePort backed by buffered channels.
// Messages are lost on restart; use it for development and tests.
type MemoryQueue struct {
	mu     sync.Mutex
	topics map[string]chan []byte
	buffer int
	closed bool
	logger *zap.Logger
}

// NewMemoryQueue creates an in-memory queue with the given per-topic buffer.
func NewMemoryQueue(buffer int, logger *zap.Logger) *MemoryQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryQueue{
		topics: make(map[string]chan []byte),
		buffer: buffer,
		logger: logger.Named("memory-queue"),
	}
}

func (q *MemoryQueue) topic(name string) (chan []byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	ch, ok := q.topics[name]
	if !ok {
		ch = make(chan []byte, q.buffer)
		q.topics[name] = ch
	}
	return ch, nil
}

// Publish enqueues a copy of message without blocking.
func (q *MemoryQueue) Publish(_ context.Context, topic string, message []byte) error {
	ch, err := q.topic(topic)
	if err != nil {
		return err
	}
	msg := append([]byte(nil), message...)
	select {
	case ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe consumes topic until ctx is done.
func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	ch, err := q.topic(topic)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			if err := handler(msg); err != nil {
				q.logger.Warn("message handler failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}
}

// Close rejects further publishes. Pending messages stay readable by live subscribers.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// Len returns the number of buffered messages on topic.
func (q *MemoryQueue) Len(topic string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.topics[topic])
}
