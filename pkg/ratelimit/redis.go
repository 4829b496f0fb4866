package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript performs refill-and-decrement as one atomic operation inside
// Redis. Keeping the read-modify-write server-side is what makes N
// concurrent checks on a one-token bucket admit exactly one caller.
//
// KEYS[1] token count, KEYS[2] last-refill timestamp (unix seconds, float).
// ARGV: rate (tokens/sec), burst, now (unix seconds, float), ttl (ms).
// Returns {remaining (string), allowed (0|1)}.
var takeScript = redis.NewScript(`
local tokens = tonumber(redis.call('GET', KEYS[1]))
local last = tonumber(redis.call('GET', KEYS[2]))
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

if tokens == nil then
  tokens = burst
  last = now
end
if last == nil then
  last = now
end

local elapsed = now - last
if elapsed < 0 then
  elapsed = 0
end
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('SET', KEYS[1], tostring(tokens), 'PX', ttl)
redis.call('SET', KEYS[2], tostring(now), 'PX', ttl)
return {tostring(tokens), allowed}
`)

// RedisStore is the shared bucket store for multi-replica deployments.
type RedisStore struct {
	client   redis.UniversalClient
	stateTTL time.Duration
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client redis.UniversalClient, stateTTL time.Duration) *RedisStore {
	if stateTTL <= 0 {
		stateTTL = DefaultStateTTL
	}
	return &RedisStore{client: client, stateTTL: stateTTL}
}

// Take runs the atomic refill-and-decrement script.
func (s *RedisStore) Take(ctx context.Context, key string, rate float64, burst int, now time.Time) (float64, bool, error) {
	keys := []string{key, key + ":ts"}
	nowSecs := float64(now.UnixNano()) / float64(time.Second)

	res, err := takeScript.Run(ctx, s.client, keys,
		rate, burst, nowSecs, s.stateTTL.Milliseconds(),
	).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("rate limit take: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("rate limit take: unexpected reply %v", res)
	}

	rawRemaining, ok := res[0].(string)
	if !ok {
		return 0, false, fmt.Errorf("rate limit take: unexpected remaining %T", res[0])
	}
	remaining, err := strconv.ParseFloat(rawRemaining, 64)
	if err != nil {
		return 0, false, fmt.Errorf("rate limit take: parse remaining: %w", err)
	}
	allowed, ok := res[1].(int64)
	if !ok {
		return 0, false, fmt.Errorf("rate limit take: unexpected allowed %T", res[1])
	}

	return remaining, allowed == 1, nil
}
