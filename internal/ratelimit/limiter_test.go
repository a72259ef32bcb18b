package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is advanced explicitly by tests.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.Requests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.NotEmpty(t, cfg.KeyPrefix)
}

func TestMemoryLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 5, Window: time.Minute})
		defer limiter.Close()

		for i := 0; i < 5; i++ {
			result, err := limiter.Allow(ctx, "ip:192.168.1.1")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 5-i-1, result.Remaining)
			assert.Equal(t, 5, result.Limit)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 2, Window: time.Minute})
		defer limiter.Close()

		for i := 0; i < 2; i++ {
			result, err := limiter.Allow(ctx, "ip:192.168.1.1")
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		}

		for i := 0; i < 2; i++ {
			result, err := limiter.Allow(ctx, "ip:192.168.1.1")
			require.NoError(t, err)
			assert.False(t, result.Allowed)
			assert.Equal(t, 0, result.Remaining)
			assert.Greater(t, result.RetryAfter, time.Duration(0))
		}
	})

	t.Run("different identifiers have separate limits", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 1, Window: time.Minute})
		defer limiter.Close()

		result, err := limiter.Allow(ctx, "ip:192.168.1.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = limiter.Allow(ctx, "api:key-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = limiter.Allow(ctx, "ip:192.168.1.1")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("old requests slide out of the window", func(t *testing.T) {
		clock := newManualClock()
		limiter := newMemoryLimiter(Config{Requests: 2, Window: 10 * time.Second}, clock.Now)
		defer limiter.Close()

		_, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)
		clock.Advance(4 * time.Second)
		_, err = limiter.Allow(ctx, "id")
		require.NoError(t, err)

		result, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 6*time.Second, result.RetryAfter)

		// First hit leaves the window; the second is still counted.
		clock.Advance(6 * time.Second)
		result, err = limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)

		result, err = limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 4*time.Second, result.ResetAfter)
	})

	t.Run("returns correct reset time", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 1, Window: time.Second})
		defer limiter.Close()

		_, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)

		result, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Greater(t, result.ResetAfter, time.Duration(0))
		assert.LessOrEqual(t, result.ResetAfter, time.Second)
	})
}

func TestMemoryLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(Config{Requests: 1, Window: time.Minute})
	defer limiter.Close()

	result, err := limiter.Allow(ctx, "id")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "id")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	require.NoError(t, limiter.Reset(ctx, "id"))

	result, err = limiter.Allow(ctx, "id")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "should be allowed after reset")
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	limiter := newMemoryLimiter(Config{Requests: 5, Window: time.Hour}, clock.Now)
	defer limiter.Close()

	_, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, limiter.size())

	clock.Advance(45 * time.Minute)
	limiter.sweep()

	assert.Equal(t, 1, limiter.size(), "only b has hits inside the window")
}

func TestMemoryLimiter_Concurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("admits exactly the limit", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 100, Window: time.Minute})
		defer limiter.Close()

		var wg sync.WaitGroup
		var admitted int64

		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := limiter.Allow(ctx, "id")
				if err == nil && result.Allowed {
					atomic.AddInt64(&admitted, 1)
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int64(100), admitted)
	})

	t.Run("keeps identifiers independent", func(t *testing.T) {
		limiter := NewMemoryLimiter(Config{Requests: 10, Window: time.Minute})
		defer limiter.Close()

		var wg sync.WaitGroup
		var admitted int64

		for id := 0; id < 10; id++ {
			identifier := string(rune('A' + id))
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					result, err := limiter.Allow(ctx, id)
					if err == nil && result.Allowed {
						atomic.AddInt64(&admitted, 1)
					}
				}(identifier)
			}
		}

		wg.Wait()
		assert.Equal(t, int64(100), admitted)
	})
}

func TestMemoryLimiter_ContextCancellation(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Requests: 10, Window: time.Minute})
	defer limiter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limiter.Allow(ctx, "test")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, limiter.Reset(ctx, "test"), context.Canceled)
}

func TestMemoryLimiter_CloseTwice(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Requests: 1, Window: time.Minute})

	assert.NotPanics(t, func() {
		assert.NoError(t, limiter.Close())
		assert.NoError(t, limiter.Close())
	})
}
