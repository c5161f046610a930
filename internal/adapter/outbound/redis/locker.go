package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ outbound.LockerPort = (*lockerAdapter)(nil)

// lockerAdapter implements outbound.LockerPort with SET NX PX.
type lockerAdapter struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewLockerAdapter creates a Redis-backed locker.
func NewLockerAdapter(client redis.UniversalClient, logger *zap.Logger) outbound.LockerPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &lockerAdapter{client: client, logger: logger.Named("redis-locker")}
}

func (a *lockerAdapter) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	fullKey := lockKeyPrefix + key
	token := uuid.NewString()

	ok, err := a.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be cancelled when release runs.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, a.client, []string{fullKey}, token).Err(); err != nil {
			a.logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}
