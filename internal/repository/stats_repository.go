// Package repository handles data persistence.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gourl/idforge/internal/database"
	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/internal/models"
)

// StatsRepository defines persistence for generation statistics.
type StatsRepository interface {
	// UpsertGenerationStats adds each stat's count to its (format, bucket) row.
	UpsertGenerationStats(ctx context.Context, stats []models.GenerationStat) error

	// Totals sums counts per format for buckets at or after since.
	Totals(ctx context.Context, since time.Time) ([]models.FormatTotal, error)

	// ListStats returns the buckets recorded for format at or after since.
	ListStats(ctx context.Context, format string, since time.Time) ([]models.GenerationStat, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}

// PostgresStatsRepository implements StatsRepository using PostgreSQL.
type PostgresStatsRepository struct {
	pool *database.Pool
}

// NewPostgresStatsRepository creates a new PostgreSQL-backed stats repository.
func NewPostgresStatsRepository(pool *database.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

const upsertStatQuery = `
	INSERT INTO generation_stats (format, bucket, count, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (format, bucket) DO UPDATE
	SET count = generation_stats.count + EXCLUDED.count,
	    updated_at = NOW()
`

// UpsertGenerationStats writes all stats in one transaction.
func (r *PostgresStatsRepository) UpsertGenerationStats(ctx context.Context, stats []models.GenerationStat) error {
	if len(stats) == 0 {
		return nil
	}
	for i := range stats {
		if err := stats[i].Validate(); err != nil {
			return fmt.Errorf("invalid stat %q: %w", stats[i].Format, err)
		}
	}
	defer observe("upsert_generation_stats", time.Now())

	batch := &pgx.Batch{}
	for _, s := range stats {
		batch.Queue(upsertStatQuery, s.Format, s.Bucket.UTC(), s.Count)
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range stats {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to upsert generation stats: %w", err)
	}

	return nil
}

// Totals sums counts per format, ordered by format name.
func (r *PostgresStatsRepository) Totals(ctx context.Context, since time.Time) ([]models.FormatTotal, error) {
	defer observe("generation_totals", time.Now())

	query := `
		SELECT format, SUM(count)::BIGINT, MAX(bucket)
		FROM generation_stats
		WHERE bucket >= $1
		GROUP BY format
		ORDER BY format
	`

	rows, err := r.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query generation totals: %w", err)
	}
	defer rows.Close()

	var totals []models.FormatTotal
	for rows.Next() {
		var (
			t    models.FormatTotal
			last time.Time
		)
		if err := rows.Scan(&t.Format, &t.Count, &last); err != nil {
			return nil, fmt.Errorf("failed to scan generation total: %w", err)
		}
		last = last.UTC()
		t.LastBucket = &last
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// ListStats returns buckets for format in chronological order.
func (r *PostgresStatsRepository) ListStats(ctx context.Context, format string, since time.Time) ([]models.GenerationStat, error) {
	defer observe("list_generation_stats", time.Now())

	query := `
		SELECT format, bucket, count
		FROM generation_stats
		WHERE format = $1 AND bucket >= $2
		ORDER BY bucket
	`

	rows, err := r.pool.Query(ctx, query, format, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query generation stats: %w", err)
	}
	defer rows.Close()

	var stats []models.GenerationStat
	for rows.Next() {
		var s models.GenerationStat
		if err := rows.Scan(&s.Format, &s.Bucket, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan generation stat: %w", err)
		}
		s.Bucket = s.Bucket.UTC()
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// HealthCheck verifies the database connection is healthy.
func (r *PostgresStatsRepository) HealthCheck(ctx context.Context) error {
	return r.pool.HealthCheck(ctx)
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
