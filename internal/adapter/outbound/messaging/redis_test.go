package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := NewRedisQueue(client, nil)
	q.pollTimeout = 50 * time.Millisecond
	return q, mr
}

func TestRedisQueue_Publish(t *testing.T) {
	q, mr := newTestRedisQueue(t)

	require.NoError(t, q.Publish(context.Background(), "payment.notifications", []byte(`{"a":1}`)))

	items, err := mr.List("queue:payment.notifications")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`}, items)
}

func TestRedisQueue_SubscribeFIFO(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, "t", []byte("first")))
	require.NoError(t, q.Publish(ctx, "t", []byte("second")))

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Subscribe(ctx, "t", func(msg []byte) error {
			mu.Lock()
			got = append(got, string(msg))
			mu.Unlock()
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	assert.Equal(t, []string{"first", "second"}, got)
}
