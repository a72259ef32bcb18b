package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLimiter is a per-process sliding window limiter.
type MemoryLimiter struct {
	config  Config
	now     func() time.Time
	entries sync.Map // identifier -> *window

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// window holds ascending request timestamps for one identifier.
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// prune drops hits at or before start.
func (w *window) prune(start time.Time) {
	i := sort.Search(len(w.hits), func(i int) bool { return w.hits[i].After(start) })
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

// NewMemoryLimiter creates a new in-memory rate limiter and starts its
// janitor. Call Close to stop it.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return newMemoryLimiter(cfg, time.Now)
}

func newMemoryLimiter(cfg Config, now func() time.Time) *MemoryLimiter {
	m := &MemoryLimiter{
		config: cfg,
		now:    now,
		done:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.janitor()

	return m
}

// Allow records a hit for identifier if it is under the limit.
func (m *MemoryLimiter) Allow(ctx context.Context, identifier string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.now()
	val, _ := m.entries.LoadOrStore(identifier, &window{})
	w := val.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now.Add(-m.config.Window))

	var resetAfter time.Duration
	if len(w.hits) > 0 {
		resetAfter = max(w.hits[0].Add(m.config.Window).Sub(now), 0)
	}

	if len(w.hits) >= m.config.Requests {
		return denied(m.config.Requests, resetAfter), nil
	}

	w.hits = append(w.hits, now)
	return allowed(m.config.Requests, len(w.hits), resetAfter), nil
}

// Reset clears the rate limit state for an identifier.
func (m *MemoryLimiter) Reset(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Delete(identifier)
	return nil
}

// Close stops the janitor. It is safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}

func (m *MemoryLimiter) janitor() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep forgets identifiers with no hits inside the window.
func (m *MemoryLimiter) sweep() {
	start := m.now().Add(-m.config.Window)

	m.entries.Range(func(key, value any) bool {
		w := value.(*window)
		w.mu.Lock()
		w.prune(start)
		empty := len(w.hits) == 0
		w.mu.Unlock()

		if empty {
			m.entries.Delete(key)
		}
		return true
	})
}

// size reports the number of tracked identifiers.
func (m *MemoryLimiter) size() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
