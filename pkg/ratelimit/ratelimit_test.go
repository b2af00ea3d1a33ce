package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/pkg/ratelimit"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testCfg = ratelimit.Config{Max: 3, Window: 15 * time.Minute, Retention: 24 * time.Hour}

func TestLimiter_Admit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("admits up to the cap then rejects", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		l := ratelimit.New(ratelimit.NewMemoryStore(), testCfg, ratelimit.WithClock(clock.Now))
		start := clock.Now()

		for i, remaining := range []int{2, 1, 0} {
			d, err := l.Admit(ctx, "client")
			require.NoError(t, err)
			require.True(t, d.Allowed, "request %d", i)
			require.Equal(t, 3, d.Limit)
			require.Equal(t, remaining, d.Remaining)
			require.Equal(t, start.Add(15*time.Minute), d.ResetAt)
			clock.Advance(time.Minute)
		}

		d, err := l.Admit(ctx, "client")
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.Zero(t, d.Remaining)
		require.Equal(t, start.Add(15*time.Minute), d.ResetAt)
	})

	t.Run("rejected attempts are not recorded", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := ratelimit.NewMemoryStore()
		l := ratelimit.New(store, testCfg, ratelimit.WithClock(clock.Now))

		for range 3 {
			_, err := l.Admit(ctx, "client")
			require.NoError(t, err)
		}
		for range 5 {
			d, err := l.Admit(ctx, "client")
			require.NoError(t, err)
			require.False(t, d.Allowed)
		}

		hits, err := store.Load(ctx, "client")
		require.NoError(t, err)
		require.Len(t, hits, 3)

		clock.Advance(15*time.Minute + time.Second)
		d, err := l.Admit(ctx, "client")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2, d.Remaining)
	})

	t.Run("window slides", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		l := ratelimit.New(ratelimit.NewMemoryStore(), testCfg, ratelimit.WithClock(clock.Now))

		_, err := l.Admit(ctx, "client")
		require.NoError(t, err)
		clock.Advance(10 * time.Minute)
		for range 2 {
			_, err = l.Admit(ctx, "client")
			require.NoError(t, err)
		}

		d, err := l.Admit(ctx, "client")
		require.NoError(t, err)
		require.False(t, d.Allowed)

		// First hit leaves the window; the other two still count.
		clock.Advance(5*time.Minute + time.Millisecond)
		d, err = l.Admit(ctx, "client")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Zero(t, d.Remaining)
	})

	t.Run("clients are independent", func(t *testing.T) {
		t.Parallel()

		l := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Max: 1, Window: time.Minute})

		a, err := l.Admit(ctx, "a")
		require.NoError(t, err)
		b, err := l.Admit(ctx, "b")
		require.NoError(t, err)
		require.True(t, a.Allowed)
		require.True(t, b.Allowed)
	})

	t.Run("non-positive cap disables limiting", func(t *testing.T) {
		t.Parallel()

		for _, n := range []int{0, -1} {
			store := ratelimit.NewMemoryStore()
			l := ratelimit.New(store, ratelimit.Config{Max: n, Window: time.Minute})
			for range 50 {
				d, err := l.Admit(ctx, "client")
				require.NoError(t, err)
				require.True(t, d.Allowed)
				require.Zero(t, d.Limit)
			}
			require.Zero(t, store.Len())
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("backend down")
		l := ratelimit.New(failingStore{err: boom}, testCfg)

		_, err := l.Admit(ctx, "client")
		require.ErrorIs(t, err, boom)
	})
}

func TestLimiter_AdmitConcurrent(t *testing.T) {
	t.Parallel()

	const limit = 10
	store := ratelimit.NewMemoryStore()
	l := ratelimit.New(store, ratelimit.Config{Max: limit, Window: time.Hour})

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 2 * limit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Admit(context.Background(), "same-client")
			if err == nil && d.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, limit, admitted.Load())
}

func TestLimiter_ElevenInFifteenMinutes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := ratelimit.New(ratelimit.NewMemoryStore(),
		ratelimit.Config{Max: 10, Window: 15 * time.Minute, Retention: 24 * time.Hour},
		ratelimit.WithClock(clock.Now))

	for i := range 10 {
		d, err := l.Admit(context.Background(), "F")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
		clock.Advance(time.Minute)
	}

	now := clock.Now()
	d, err := l.Admit(context.Background(), "F")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.False(t, d.ResetAt.Before(now))

	clock.Advance(d.ResetAt.Sub(now))
	d, err = l.Admit(context.Background(), "F")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore()
	l := ratelimit.New(store, testCfg, ratelimit.WithClock(clock.Now))

	_, err := l.Admit(ctx, "old")
	require.NoError(t, err)
	clock.Advance(23 * time.Hour)
	_, err = l.Admit(ctx, "recent")
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)

	n, err := l.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, store.Len())

	hits, err := store.Load(ctx, "old")
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestDecision_RetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		resetAt time.Time
		want    time.Duration
	}{
		{"rounds up", now.Add(90*time.Second + 200*time.Millisecond), 91 * time.Second},
		{"whole seconds", now.Add(2 * time.Minute), 2 * time.Minute},
		{"past reset", now.Add(-time.Minute), time.Second},
		{"sub-second", now.Add(300 * time.Millisecond), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ratelimit.Decision{ResetAt: tt.resetAt}.RetryAfter(now))
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	require.True(t, testCfg.Enabled())
	require.False(t, ratelimit.Config{Max: 0, Window: time.Minute}.Enabled())
	require.False(t, ratelimit.Config{Max: 5}.Enabled())
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := ratelimit.Fingerprint("203.0.113.7", "Mozilla/5.0")
	require.Len(t, a, 64)
	require.Equal(t, a, ratelimit.Fingerprint(" 203.0.113.7 ", "Mozilla/5.0"))
	require.NotEqual(t, a, ratelimit.Fingerprint("203.0.113.8", "Mozilla/5.0"))
	require.NotEqual(t, a, ratelimit.Fingerprint("203.0.113.7", "curl/8.0"))
	require.NotContains(t, a, "203.0.113.7")
}

type failingStore struct {
	err error
}

func (s failingStore) Load(context.Context, string) ([]time.Time, error) { return nil, s.err }

func (s failingStore) Update(context.Context, string, ratelimit.UpdateFunc) error { return s.err }

func (s failingStore) Sweep(context.Context, time.Time) (int, error) { return 0, s.err }
