package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tech-artist89/mitra/internal/config"
	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/pkg/db"
	"github.com/tech-artist89/mitra/pkg/ratelimit"
	"github.com/tech-artist89/mitra/pkg/redis"
)

// storeResources carries what the rate-limit store adds to the process.
type storeResources struct {
	checks   []server.HealthOption
	shutdown []func(context.Context) error
}

// newLimiter opens the configured rate-limit store.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) (*ratelimit.Limiter, storeResources, error) {
	var res storeResources

	switch cfg.RateLimit.Store {
	case ratelimit.StoreMemory:
		return ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimit.Config), res, nil

	case ratelimit.StoreRedis:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, res, fmt.Errorf("rate limit store: %w", err)
		}
		res.checks = append(res.checks, server.WithReadinessCheck("redis", redis.Healthcheck(client)))
		res.shutdown = append(res.shutdown, redis.Shutdown(client))
		store := ratelimit.NewRedisStore(client, ratelimit.WithRedisTTL(cfg.RateLimit.Retention))
		return ratelimit.New(store, cfg.RateLimit.Config), res, nil

	case ratelimit.StorePostgres:
		pool, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, res, fmt.Errorf("rate limit store: %w", err)
		}
		if err := db.Migrate(ctx, pool, ratelimit.Migrations, ratelimit.MigrationsDir, cfg.Database.MigrationsTable, log); err != nil {
			pool.Close()
			return nil, res, fmt.Errorf("rate limit store: %w", err)
		}
		res.checks = append(res.checks, server.WithReadinessCheck("postgres", db.Healthcheck(pool)))
		res.shutdown = append(res.shutdown, db.Shutdown(pool))
		return ratelimit.New(ratelimit.NewPostgresStore(pool), cfg.RateLimit.Config), res, nil
	}

	return nil, res, fmt.Errorf("%w: %q", ratelimit.ErrUnknownStore, cfg.RateLimit.Store)
}
