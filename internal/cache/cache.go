// Package cache provides a Redis byte store and the read-through stats
// repository built on it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gourl/idforge/internal/config"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the store StatsRepository reads through.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl keeps it until overwritten.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisCache is a Cache on any go-redis client, including cluster and
// sentinel clients.
type RedisCache struct {
	rdb redis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client. Close closes the client.
func NewRedisCache(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// DialRedisCache opens a client for cfg and fails unless the server answers PING.
func DialRedisCache(ctx context.Context, cfg *config.RedisConfig) (*RedisCache, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Address()},
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address(), err)
	}
	return NewRedisCache(rdb), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, redisError("get", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return redisError("set", key, c.rdb.Set(ctx, key, value, ttl).Err())
}

// Delete removes keys; missing keys are ignored.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return redisError("del", keys[0], c.rdb.Del(ctx, keys...).Err())
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return redisError("ping", "", c.rdb.Ping(ctx).Err())
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Client exposes the underlying client.
func (c *RedisCache) Client() redis.UniversalClient {
	return c.rdb
}

// redisError maps redis.Nil to ErrCacheMiss and tags other failures with
// the command and key.
func redisError(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case key == "":
		return fmt.Errorf("redis %s: %w", op, err)
	default:
		return fmt.Errorf("redis %s %q: %w", op, key, err)
	}
}
