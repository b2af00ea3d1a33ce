package ratelimit

import (
	"context"
	"math"
	"time"
)

// Store names accepted by [Config].
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds limiter settings.
type Config struct {
	// Store selects the backend: memory, redis or postgres.
	Store string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	// Max is the number of requests admitted per window. Zero or less disables limiting.
	Max       int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	Window    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	Retention time.Duration `env:"RATE_LIMIT_RETENTION" envDefault:"24h"`
}

// Enabled reports whether requests are limited at all.
func (c Config) Enabled() bool {
	return c.Max > 0 && c.Window > 0
}

// Decision is the outcome of a single admission.
type Decision struct {
	ResetAt   time.Time `json:"resetAt"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Allowed   bool      `json:"allowed"`
}

// RetryAfter returns the wait until the window frees a slot, rounded up to
// whole seconds and never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= time.Second {
		return time.Second
	}
	return time.Duration(math.Ceil(wait.Seconds())) * time.Second
}

// UpdateFunc receives the persisted timestamps of a key and returns the
// sequence to persist. When write is false the store leaves the key untouched.
// An empty sequence with write set removes the key.
// Stores may call it more than once when an optimistic write conflicts.
type UpdateFunc func(hits []time.Time) (next []time.Time, write bool)

// Store persists per-key timestamp sequences.
type Store interface {
	// Load returns the persisted sequence of key, oldest first.
	Load(ctx context.Context, key string) ([]time.Time, error)
	// Update runs fn and persists its result atomically with respect to
	// other updates of the same key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Sweep deletes keys whose newest timestamp is before the cutoff and
	// returns how many were removed.
	Sweep(ctx context.Context, before time.Time) (int, error)
}

// Limiter is a sliding-window rate limiter. It is safe for concurrent use.
type Limiter struct {
	store     Store
	clock     func() time.Time
	max       int
	window    time.Duration
	retention time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a limiter over store.
func New(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		store:     store,
		clock:     time.Now,
		max:       cfg.Max,
		window:    cfg.Window,
		retention: cfg.Retention,
	}
	if l.retention <= 0 {
		l.retention = 24 * time.Hour
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit decides whether the client identified by fingerprint may proceed.
// An admitted request is persisted before Admit returns; a rejected one is not.
func (l *Limiter) Admit(ctx context.Context, fingerprint string) (Decision, error) {
	now := l.clock()
	if l.max <= 0 || l.window <= 0 {
		return Decision{Allowed: true, ResetAt: now}, nil
	}

	var d Decision
	err := l.store.Update(ctx, fingerprint, func(hits []time.Time) ([]time.Time, bool) {
		kept := prune(hits, now.Add(-l.window))
		d = Decision{Limit: l.max}

		if len(kept) >= l.max {
			d.ResetAt = kept[0].Add(l.window)
			// Persist only the pruning, never the rejected attempt.
			return kept, len(kept) != len(hits)
		}

		kept = append(kept, now)
		d.Allowed = true
		d.Remaining = l.max - len(kept)
		d.ResetAt = kept[0].Add(l.window)
		return kept, true
	})
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

// Sweep removes state untouched for longer than the retention period.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.clock().Add(-l.retention))
}

// prune drops timestamps at or before cutoff. hits is not modified.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	out := make([]time.Time, 0, len(hits)+1)
	for _, t := range hits {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func newest(hits []time.Time) time.Time {
	var latest time.Time
	for _, t := range hits {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}
