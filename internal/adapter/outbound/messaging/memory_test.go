package messaging

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Subscribe(ctx, "topic", func(msg []byte) error {
			mu.Lock()
			got = append(got, string(msg))
			mu.Unlock()
			return nil
		})
	}()

	require.NoError(t, q.Publish(ctx, "topic", []byte("a")))
	require.NoError(t, q.Publish(ctx, "topic", []byte("b")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryQueue_CompetingConsumers(t *testing.T) {
	q := NewMemoryQueue(64, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delivered atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Subscribe(ctx, "jobs", func([]byte) error {
				delivered.Add(1)
				return nil
			})
		}()
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Publish(ctx, "jobs", []byte("x")))
	}

	assert.Eventually(t, func() bool { return delivered.Load() == 20 }, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()
	assert.Equal(t, int32(20), delivered.Load())
}

func TestMemoryQueue_Full(t *testing.T) {
	q := NewMemoryQueue(1, nil)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, "t", []byte("1")))
	assert.ErrorIs(t, q.Publish(ctx, "t", []byte("2")), ErrQueueFull)
	assert.Equal(t, 1, q.Len("t"))
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue(1, nil)
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Publish(context.Background(), "t", []byte("1")), ErrClosed)
}

func TestMemoryQueue_PublishCopiesMessage(t *testing.T) {
	q := NewMemoryQueue(1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	buf := []byte("original")
	require.NoError(t, q.Publish(ctx, "t", buf))
	copy(buf, "mutated!")

	received := make(chan string, 1)
	go func() {
		_ = q.Subscribe(ctx, "t", func(msg []byte) error {
			received <- string(msg)
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, "original", msg)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
}
