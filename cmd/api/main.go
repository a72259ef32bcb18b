// Package main is the entry point for the idforge API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gourl/idforge/internal/analytics"
	"github.com/gourl/idforge/internal/cache"
	"github.com/gourl/idforge/internal/config"
	"github.com/gourl/idforge/internal/database"
	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/internal/ratelimit"
	"github.com/gourl/idforge/internal/repository"
	"github.com/gourl/idforge/internal/server"
	"github.com/gourl/idforge/internal/services"
	"github.com/gourl/idforge/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel).With("env", cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool         *database.Pool
		statsCache   *cache.RedisCache
		repo         repository.StatsRepository
		counter      *analytics.GenerationCounter
		redisLimiter *ratelimit.RedisLimiter
		opts         []server.Option
	)

	if cfg.DatabaseEnabled() {
		pool, err = database.NewPool(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator, err := database.NewSchemaMigrator(pool)
		if err != nil {
			return err
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database ready", "host", cfg.Database.Host, "migrations_applied", applied)

		repo = repository.NewPostgresStatsRepository(pool)

		if cfg.Analytics.CacheTTL > 0 {
			statsCache, err = cache.DialRedisCache(ctx, &cfg.Redis)
			if err != nil {
				return err
			}
			defer statsCache.Close()
			repo = cache.NewStatsRepository(repo, statsCache, cfg.Analytics.CacheTTL, log)
			log.Info("stats cache enabled", "ttl", cfg.Analytics.CacheTTL.String())
		}
	}

	if cfg.Analytics.Enabled {
		if repo == nil {
			log.Warn("analytics enabled without a database, generation stats will not be persisted")
		} else {
			counter = analytics.NewGenerationCounter(analytics.Config{
				FlushInterval: cfg.Analytics.FlushInterval,
				BatchSize:     cfg.Analytics.BatchSize,
			}, analytics.NewRepositoryFlusher(repo, log))
			defer counter.Stop()
		}
	}

	recorders := idgen.MultiRecorder{metrics.Recorder{}}
	if counter != nil {
		recorders = append(recorders, counter)
	}

	dispatcher, err := idgen.NewDispatcher(idgen.Options{
		NanoIDSize:     cfg.IDGen.NanoIDSize,
		NanoIDAlphabet: cfg.IDGen.NanoIDAlphabet,
		Recorder:       recorders,
	})
	if err != nil {
		return fmt.Errorf("failed to create id dispatcher: %w", err)
	}
	opts = append(opts, server.WithIDService(services.NewIDService(dispatcher, log)))

	// A typed nil must not reach the service as a non-nil interface.
	var pending services.PendingStatsProvider
	if counter != nil {
		pending = counter
	}
	if repo != nil || pending != nil {
		opts = append(opts, server.WithStatsService(services.NewStatsService(repo, pending)))
	}

	if cfg.Rate.Enabled && cfg.Rate.Backend == config.RateBackendRedis {
		limiter, err := ratelimit.DialRedisLimiter(ctx, &cfg.Redis, ratelimit.Config{
			Requests: cfg.Rate.Requests,
			Window:   cfg.Rate.Window,
		})
		if err != nil {
			return err
		}
		opts = append(opts, server.WithRateLimiter(limiter))
		redisLimiter = limiter
	}

	srv, err := server.New(cfg, log, opts...)
	if err != nil {
		if redisLimiter != nil {
			_ = redisLimiter.Close()
		}
		return err
	}
	if pool != nil {
		srv.HealthHandler().AddCheck("database", pool.HealthCheck)
	}
	if statsCache != nil {
		srv.HealthHandler().AddCheck("stats_cache", statsCache.Ping)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
