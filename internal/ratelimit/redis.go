package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// allowScript implements the fixed window atomically on the Redis side:
// open a fresh window on first sight, increment while under the cap, and
// reject without incrementing once the cap is reached.
var allowScript = redis.NewScript(`
local n = tonumber(redis.call("GET", KEYS[1]) or "0")
if n >= tonumber(ARGV[1]) then
  return 0
end
n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore shares window counters across instances through Redis.
// Counter keys are namespaced under "ratelimit:" and expire with the window.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Allow implements Store. Errors are returned to the caller; the Limiter
// treats them as allowed.
func (s *RedisStore) Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	res, err := allowScript.Run(ctx, s.client, []string{"ratelimit:" + key}, max, window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
