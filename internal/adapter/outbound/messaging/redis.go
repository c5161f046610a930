package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisQueuePrefix = "queue:"

var _ outbound.MessagePort = (*RedisQueue)(nil)

// RedisQueue is a MessagePort over Redis lists (LPUSH / BRPOP).
// Each message is delivered to exactly one subscriber.
type RedisQueue struct {
	client      redis.UniversalClient
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewRedisQueue creates a Redis list queue.
func NewRedisQueue(client redis.UniversalClient, logger *zap.Logger) *RedisQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{
		client:      client,
		pollTimeout: time.Second,
		logger:      logger.Named("redis-queue"),
	}
}

// Publish pushes message onto the topic list.
func (q *RedisQueue) Publish(ctx context.Context, topic string, message []byte) error {
	if err := q.client.LPush(ctx, redisQueuePrefix+topic, message).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe pops messages from the topic list until ctx is done.
func (q *RedisQueue) Subscribe(ctx context.Context, topic string, handler func([]byte) error) error {
	key := redisQueuePrefix + topic
	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := q.client.BRPop(ctx, q.pollTimeout, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.Warn("redis pop failed", zap.String("topic", topic), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(q.pollTimeout):
			}
			continue
		}

		// result is [key, value]
		if len(result) != 2 {
			continue
		}
		if err := handler([]byte(result[1])); err != nil {
			q.logger.Warn("message handler failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (q *RedisQueue) Close() error {
	return nil
}
