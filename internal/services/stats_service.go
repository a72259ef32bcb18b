package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/models"
	"github.com/gourl/idforge/internal/repository"
)

// ErrStatsUnavailable is returned when neither storage nor an in-memory
// counter is configured.
var ErrStatsUnavailable = errors.New("generation statistics are not enabled")

// PendingStatsProvider provides access to unflushed generation counts.
type PendingStatsProvider interface {
	Pending() []models.GenerationStat
}

// StatsService defines read access to generation statistics.
type StatsService interface {
	Totals(ctx context.Context, since time.Time) ([]models.FormatTotal, error)
	FormatStats(ctx context.Context, format string, since time.Time) ([]models.GenerationStat, error)
}

// StatsServiceImpl merges persisted and pending counts.
type StatsServiceImpl struct {
	repo    repository.StatsRepository
	pending PendingStatsProvider
}

// NewStatsService creates a StatsService. Either argument may be nil.
func NewStatsService(repo repository.StatsRepository, pending PendingStatsProvider) *StatsServiceImpl {
	return &StatsServiceImpl{repo: repo, pending: pending}
}

// Totals returns per-format totals since the given time, ordered by format.
// Counts not yet flushed are reported in Pending.
func (s *StatsServiceImpl) Totals(ctx context.Context, since time.Time) ([]models.FormatTotal, error) {
	if s.repo == nil && s.pending == nil {
		return nil, ErrStatsUnavailable
	}

	byFormat := make(map[string]*models.FormatTotal)
	if s.repo != nil {
		totals, err := s.repo.Totals(ctx, since)
		if err != nil {
			return nil, err
		}
		for i := range totals {
			byFormat[totals[i].Format] = &totals[i]
		}
	}

	for _, p := range s.pendingSince("", since) {
		t, ok := byFormat[p.Format]
		if !ok {
			t = &models.FormatTotal{Format: p.Format}
			byFormat[p.Format] = t
		}
		t.Pending += p.Count
	}

	out := make([]models.FormatTotal, 0, len(byFormat))
	for _, t := range byFormat {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out, nil
}

// FormatStats returns the buckets recorded for format since the given time,
// with pending counts folded into their buckets.
func (s *StatsServiceImpl) FormatStats(ctx context.Context, format string, since time.Time) ([]models.GenerationStat, error) {
	f, err := idgen.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if s.repo == nil && s.pending == nil {
		return nil, ErrStatsUnavailable
	}

	var stats []models.GenerationStat
	if s.repo != nil {
		stats, err = s.repo.ListStats(ctx, f.String(), since)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range s.pendingSince(f.String(), since) {
		merged := false
		for i := range stats {
			if stats[i].Bucket.Equal(p.Bucket) {
				stats[i].Count += p.Count
				merged = true
				break
			}
		}
		if !merged {
			stats = append(stats, p)
		}
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Bucket.Before(stats[j].Bucket) })
	return stats, nil
}

func (s *StatsServiceImpl) pendingSince(format string, since time.Time) []models.GenerationStat {
	if s.pending == nil {
		return nil
	}
	var out []models.GenerationStat
	for _, p := range s.pending.Pending() {
		if format != "" && p.Format != format {
			continue
		}
		if p.Bucket.Before(since) {
			continue
		}
		out = append(out, p)
	}
	return out
}
