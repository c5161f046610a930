package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alxtravel/server/internal/port/outbound"
)

const rateLimitKeyPrefix = "ratelimit:"

// allowScript trims the window, counts it and records the request in one
// step. Scores are microseconds so they stay exact as Lua numbers.
// Returns {allowed, remaining}.
var allowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
if count >= limit then
	return {0, 0}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return {1, limit - count - 1}
`)

// rateLimiterAdapter implements a sliding window limiter on sorted sets.
type rateLimiterAdapter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRateLimiterAdapter creates a new rate limiter adapter.
func NewRateLimiterAdapter(client redis.UniversalClient) outbound.RateLimiterPort {
	return &rateLimiterAdapter{client: client, now: time.Now}
}

// Allow admits the request if fewer than limit requests were recorded within
// window. Rejected requests are not recorded.
func (a *rateLimiterAdapter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	if limit <= 0 {
		return false, 0, nil
	}

	res, err := allowScript.Run(ctx, a.client, []string{rateLimitKeyPrefix + key},
		a.now().UnixMicro(),
		window.Microseconds(),
		limit,
		uuid.NewString(),
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit: unexpected reply %v", res)
	}

	return res[0] == 1, int(res[1]), nil
}
