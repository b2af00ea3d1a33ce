package job

import (
	"context"
	"log/slog"
	"time"
)

// defaultTaskTimeout bounds a single task run.
const defaultTaskTimeout = 5 * time.Minute

// config holds job manager configuration.
type config struct {
	logger    *slog.Logger
	schedules []scheduleConfig
	timeout   time.Duration
}

// scheduleConfig holds scheduled task configuration.
//
//nolint:betteralign // all fields contain pointers, no optimization possible
type scheduleConfig struct {
	handler  scheduledHandler
	name     string
	schedule string
}

// scheduledHandler is a function type for scheduled task handlers.
type scheduledHandler func(context.Context) error

// Option configures the job manager.
type Option func(*config)

// WithScheduledTask registers a periodic task using structural typing.
// The task must implement Name(), Schedule(), and Handle(ctx) methods.
// Tasks with an empty schedule are registered for Run but never scheduled.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}

// WithFunc registers fn under name on schedule.
//
// Example:
//
//	job.WithFunc("ratelimit_sweep", "@hourly", func(ctx context.Context) error {
//	    _, err := limiter.Sweep(ctx)
//	    return err
//	})
func WithFunc(name, schedule string, fn func(context.Context) error) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     name,
			schedule: schedule,
			handler:  fn,
		})
	}
}

// WithTaskTimeout bounds each task run. Defaults to five minutes.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
