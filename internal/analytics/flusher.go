package analytics

import (
	"context"

	"github.com/gourl/idforge/pkg/logger"
)

// StatsRepository persists generation counts.
type StatsRepository interface {
	UpsertGenerationStats(ctx context.Context, stats []Stat) error
}

// RepositoryFlusher implements Flusher using a repository.
type RepositoryFlusher struct {
	repo StatsRepository
	log  *logger.Logger
}

// NewRepositoryFlusher creates a new RepositoryFlusher.
func NewRepositoryFlusher(repo StatsRepository, log *logger.Logger) *RepositoryFlusher {
	if log == nil {
		log = logger.Nop()
	}
	return &RepositoryFlusher{
		repo: repo,
		log:  log,
	}
}

// Flush persists stats to the repository.
func (f *RepositoryFlusher) Flush(ctx context.Context, stats []Stat) error {
	if len(stats) == 0 {
		return nil
	}

	if err := f.repo.UpsertGenerationStats(ctx, stats); err != nil {
		f.log.Error("failed to flush generation stats", "error", err, "rows", len(stats))
		return err
	}

	var total int64
	for _, s := range stats {
		total += s.Count
	}
	f.log.Debug("flushed generation stats", "rows", len(stats), "total_ids", total)

	return nil
}
