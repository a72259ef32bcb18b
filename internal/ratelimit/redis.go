package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gourl/idforge/internal/config"
)

// slidingWindow prunes, counts and conditionally records a hit in one round
// trip. Scores are Unix milliseconds.
//
// KEYS[1] window key
// ARGV[1] now, ARGV[2] window, ARGV[3] limit, ARGV[4] unique member
// Returns {allowed (0|1), hits in window, ms until the oldest hit expires}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

local reset = 0
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window - now
  if reset < 0 then reset = 0 end
end

if count >= limit then
  return {0, count, reset}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, reset}
`)

// RedisLimiter is a sliding window limiter shared by every instance that
// points at the same Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	config Config
	now    func() time.Time
	owned  bool
}

// NewRedisLimiter creates a limiter on an existing client. Close does not
// close the client.
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, config: cfg, now: time.Now}
}

// DialRedisLimiter connects to Redis and returns a limiter that owns the
// connection.
func DialRedisLimiter(ctx context.Context, rc *config.RedisConfig, cfg Config) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Address(),
		Password: rc.Password,
		DB:       rc.DB,
		PoolSize: rc.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	l := NewRedisLimiter(client, cfg)
	l.owned = true
	return l, nil
}

// Allow records a hit for identifier if it is under the limit.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (*Result, error) {
	now := l.now().UnixMilli()

	raw, err := slidingWindow.Run(ctx, l.client,
		[]string{l.key(identifier)},
		now, l.config.Window.Milliseconds(), l.config.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(raw) != 3 {
		return nil, errors.New("rate limit script returned malformed reply")
	}

	resetAfter := time.Duration(raw[2]) * time.Millisecond
	if raw[0] == 0 {
		return denied(l.config.Requests, resetAfter), nil
	}
	return allowed(l.config.Requests, int(raw[1]), resetAfter), nil
}

// Reset clears the rate limit state for an identifier.
func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("rate limit reset failed: %w", err)
	}
	return nil
}

// Ping checks connectivity for the readiness endpoint.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the client if the limiter dialed it.
func (l *RedisLimiter) Close() error {
	if l.owned {
		return l.client.Close()
	}
	return nil
}

func (l *RedisLimiter) key(identifier string) string {
	return l.config.KeyPrefix + identifier
}
