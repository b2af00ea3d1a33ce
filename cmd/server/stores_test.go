package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/internal/config"
	"github.com/tech-artist89/mitra/pkg/ratelimit"
)

func testConfig(store string) config.Config {
	var cfg config.Config
	cfg.RateLimit.Store = store
	cfg.RateLimit.Max = 2
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.SweepSchedule = "@hourly"
	return cfg
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		limiter, res, err := newLimiter(context.Background(), testConfig(ratelimit.StoreMemory), log)
		require.NoError(t, err)
		require.Empty(t, res.checks)
		require.Empty(t, res.shutdown)

		d, err := limiter.Admit(context.Background(), "client")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	})

	t.Run("redis", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		cfg := testConfig(ratelimit.StoreRedis)
		cfg.Redis.URL = "redis://" + mr.Addr()
		cfg.Redis.RetryAttempts = 1

		limiter, res, err := newLimiter(context.Background(), cfg, log)
		require.NoError(t, err)
		require.Len(t, res.checks, 1)
		require.Len(t, res.shutdown, 1)
		t.Cleanup(func() { _ = res.shutdown[0](context.Background()) })

		d, err := limiter.Admit(context.Background(), "client")
		require.NoError(t, err)
		require.Equal(t, 1, d.Remaining)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Parallel()

		_, _, err := newLimiter(context.Background(), testConfig("etcd"), log)
		require.ErrorIs(t, err, ratelimit.ErrUnknownStore)
	})
}

func TestSweepSchedule(t *testing.T) {
	t.Parallel()

	require.Equal(t, "@hourly", sweepSchedule(testConfig(ratelimit.StoreMemory)))

	disabled := testConfig(ratelimit.StoreMemory)
	disabled.RateLimit.Max = 0
	require.Empty(t, sweepSchedule(disabled))
}
