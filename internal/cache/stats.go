package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/internal/models"
	"github.com/gourl/idforge/internal/repository"
	"github.com/gourl/idforge/pkg/logger"
)

// DefaultKeyPrefix namespaces statistics cache keys.
const DefaultKeyPrefix = "idforge:stats:"

// StatsRepository caches the read side of a repository.StatsRepository.
// Every successful write bumps an epoch stored in the cache and read keys
// embed it, so a flush retires all earlier entries at once. Entries also
// expire after the TTL. Cache failures fall through to the wrapped repository.
type StatsRepository struct {
	repo      repository.StatsRepository
	cache     Cache
	ttl       time.Duration
	keyPrefix string
	log       *logger.Logger
}

var _ repository.StatsRepository = (*StatsRepository)(nil)

// NewStatsRepository wraps repo with cache.
func NewStatsRepository(repo repository.StatsRepository, cache Cache, ttl time.Duration, log *logger.Logger) *StatsRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &StatsRepository{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		keyPrefix: DefaultKeyPrefix,
		log:       log,
	}
}

// UpsertGenerationStats writes through to the wrapped repository and retires
// cached reads.
func (r *StatsRepository) UpsertGenerationStats(ctx context.Context, stats []models.GenerationStat) error {
	if err := r.repo.UpsertGenerationStats(ctx, stats); err != nil {
		return err
	}

	epoch := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := r.cache.Set(ctx, r.keyPrefix+"epoch", []byte(epoch), 0); err != nil {
		r.log.Warn("failed to advance stats cache epoch", "error", err)
	}
	return nil
}

// Totals returns cached totals for since, loading them on a miss.
func (r *StatsRepository) Totals(ctx context.Context, since time.Time) ([]models.FormatTotal, error) {
	key := r.keyPrefix + r.epoch(ctx) + ":totals:" + sinceKey(since)
	return cached(ctx, r, key, func() ([]models.FormatTotal, error) {
		return r.repo.Totals(ctx, since)
	})
}

// ListStats returns cached buckets for format and since, loading them on a miss.
func (r *StatsRepository) ListStats(ctx context.Context, format string, since time.Time) ([]models.GenerationStat, error) {
	key := r.keyPrefix + r.epoch(ctx) + ":format:" + format + ":" + sinceKey(since)
	return cached(ctx, r, key, func() ([]models.GenerationStat, error) {
		return r.repo.ListStats(ctx, format, since)
	})
}

// HealthCheck checks the wrapped repository.
func (r *StatsRepository) HealthCheck(ctx context.Context) error {
	return r.repo.HealthCheck(ctx)
}

// epoch returns the current write epoch, "0" before the first write.
func (r *StatsRepository) epoch(ctx context.Context) string {
	data, err := r.cache.Get(ctx, r.keyPrefix+"epoch")
	if err != nil || len(data) == 0 {
		return "0"
	}
	return string(data)
}

func cached[T any](ctx context.Context, r *StatsRepository, key string, load func() ([]T, error)) ([]T, error) {
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var out []T
		if jsonErr := json.Unmarshal(data, &out); jsonErr == nil {
			metrics.RecordStatsCache("hit")
			return out, nil
		}
		metrics.RecordStatsCache("error")
		r.log.Warn("discarding corrupt stats cache entry", "key", key)
	case errors.Is(err, ErrCacheMiss):
		metrics.RecordStatsCache("miss")
	default:
		metrics.RecordStatsCache("error")
		r.log.Warn("stats cache unavailable", "key", key, "error", err)
	}

	out, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.log.Warn("failed to populate stats cache", "key", key, "error", err)
		}
	}
	return out, nil
}

func sinceKey(since time.Time) string {
	if since.IsZero() {
		return "all"
	}
	return strconv.FormatInt(since.UTC().UnixNano(), 10)
}
