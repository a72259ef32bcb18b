// Package analytics aggregates identifier generation counts and flushes them
// to persistent storage in batches.
package analytics

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/models"
)

// Stat is the number of identifiers of one format generated within a bucket.
type Stat = models.GenerationStat

// Flusher persists aggregated generation counts.
type Flusher interface {
	Flush(ctx context.Context, stats []Stat) error
}

// Config holds configuration for the GenerationCounter.
type Config struct {
	FlushInterval time.Duration // How often to flush accumulated counts
	BatchSize     int           // Flush once this many identifiers are pending
	ChannelBuffer int           // Size of the event channel buffer
	BucketSize    time.Duration // Width of the time buckets counts are grouped into
	FlushTimeout  time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FlushInterval: 10 * time.Second,
		BatchSize:     100,
		ChannelBuffer: 10000,
		BucketSize:    time.Hour,
		FlushTimeout:  5 * time.Second,
	}
}

type event struct {
	format idgen.Format
	count  int
	at     time.Time
}

type statKey struct {
	format string
	bucket time.Time
}

// GenerationCounter provides non-blocking, batched generation counting.
// It implements idgen.Recorder.
type GenerationCounter struct {
	flusher Flusher
	cfg     Config
	now     func() time.Time

	events   chan event
	counts   map[statKey]int64
	inflight []Stat
	mu       sync.Mutex
	pending  int64

	dropped atomic.Uint64

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
	stopped  atomic.Bool
}

var _ idgen.Recorder = (*GenerationCounter)(nil)

// NewGenerationCounter creates a GenerationCounter and starts its flush loop.
func NewGenerationCounter(cfg Config, flusher Flusher) *GenerationCounter {
	return newGenerationCounter(cfg, flusher, time.Now)
}

func newGenerationCounter(cfg Config, flusher Flusher, now func() time.Time) *GenerationCounter {
	defaults := DefaultConfig()
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = defaults.ChannelBuffer
	}
	if cfg.BucketSize <= 0 {
		cfg.BucketSize = defaults.BucketSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = defaults.FlushTimeout
	}

	c := &GenerationCounter{
		flusher:  flusher,
		cfg:      cfg,
		now:      now,
		events:   make(chan event, cfg.ChannelBuffer),
		counts:   make(map[statKey]int64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go c.run()
	return c
}

// RecordGenerated records count identifiers of format. It never blocks;
// events are dropped when the buffer is full or the counter is stopped.
func (c *GenerationCounter) RecordGenerated(format idgen.Format, count int) {
	if count <= 0 {
		return
	}
	if c.stopped.Load() {
		c.dropped.Add(1)
		return
	}

	select {
	case c.events <- event{format: format, count: count, at: c.now()}:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded so far.
func (c *GenerationCounter) Dropped() uint64 {
	return c.dropped.Load()
}

// Stop stops the flush loop and flushes remaining counts.
func (c *GenerationCounter) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.stopChan)
		<-c.doneChan
	})
}

// Pending returns a snapshot of counts not yet persisted, ordered by bucket
// then format. Counts handed to an in-flight flush are included until the
// flush returns.
func (c *GenerationCounter) Pending() []Stat {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inflight) == 0 {
		return snapshot(c.counts)
	}

	merged := make(map[statKey]int64, len(c.counts)+len(c.inflight))
	for k, v := range c.counts {
		merged[k] = v
	}
	for _, s := range c.inflight {
		merged[statKey{format: s.Format, bucket: s.Bucket}] += s.Count
	}
	return snapshot(merged)
}

func (c *GenerationCounter) run() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.events:
			if c.add(ev) {
				c.flush()
			}

		case <-ticker.C:
			c.flush()

		case <-c.stopChan:
			c.drain()
			c.flush()
			return
		}
	}
}

// add folds ev into the pending counts and reports whether a flush is due.
func (c *GenerationCounter) add(ev event) bool {
	key := statKey{
		format: string(ev.format),
		bucket: ev.at.UTC().Truncate(c.cfg.BucketSize),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key] += int64(ev.count)
	c.pending += int64(ev.count)
	return c.pending >= int64(c.cfg.BatchSize)
}

func (c *GenerationCounter) drain() {
	for {
		select {
		case ev := <-c.events:
			c.add(ev)
		default:
			return
		}
	}
}

func (c *GenerationCounter) flush() {
	c.mu.Lock()
	if len(c.counts) == 0 {
		c.mu.Unlock()
		return
	}
	stats := snapshot(c.counts)
	c.counts = make(map[statKey]int64)
	c.inflight = stats
	c.pending = 0
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FlushTimeout)
	defer cancel()

	// Failures are reported by the flusher; counts are not retried.
	_ = c.flusher.Flush(ctx, stats)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
}

func snapshot(counts map[statKey]int64) []Stat {
	stats := make([]Stat, 0, len(counts))
	for k, v := range counts {
		stats = append(stats, Stat{Format: k.format, Bucket: k.bucket, Count: v})
	}
	sort.Slice(stats, func(i, j int) bool {
		if !stats[i].Bucket.Equal(stats[j].Bucket) {
			return stats[i].Bucket.Before(stats[j].Bucket)
		}
		return stats[i].Format < stats[j].Format
	})
	return stats
}
