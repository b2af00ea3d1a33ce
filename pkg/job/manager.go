package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts five-field expressions and descriptors (@hourly, @every 1h).
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Manager schedules registered tasks with robfig/cron.
type Manager struct {
	cron    *cron.Cron
	tasks   map[string]scheduledHandler
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu      sync.Mutex
	started bool
}

// NewManager validates all schedules and creates a stopped manager.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := &config{timeout: defaultTaskTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	cl := cronLogger{log: cfg.logger}
	m := &Manager{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		tasks:   make(map[string]scheduledHandler, len(cfg.schedules)),
		logger:  cfg.logger,
		timeout: cfg.timeout,
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	for _, sched := range cfg.schedules {
		if _, dup := m.tasks[sched.name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, sched.name)
		}
		m.tasks[sched.name] = sched.handler

		if sched.schedule == "" {
			continue
		}
		name := sched.name
		if _, err := m.cron.AddFunc(sched.schedule, func() { _ = m.run(m.ctx, name) }); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, sched.schedule, err)
		}
	}

	return m, nil
}

// Start begins scheduling. ctx only scopes startup; tasks run until Stop.
func (m *Manager) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.ctx.Err() != nil {
		return ErrStopped
	}

	m.cron.Start()
	m.started = true
	m.logger.Info("job manager started", slog.Int("tasks", len(m.tasks)))
	return nil
}

// Stop prevents further runs and waits for running tasks until ctx ends,
// after which their contexts are cancelled. A stopped manager cannot be
// started again.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}

	done := m.cron.Stop()
	var err error
	select {
	case <-done.Done():
	case <-ctx.Done():
		err = fmt.Errorf("job: stop: %w", ctx.Err())
	}
	m.cancel()

	m.started = false
	m.logger.Info("job manager stopped")
	return err
}

// Run executes the named task immediately, outside its schedule.
func (m *Manager) Run(ctx context.Context, name string) error {
	if _, ok := m.tasks[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return m.run(ctx, name)
}

func (m *Manager) run(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	m.logger.DebugContext(ctx, "executing task", slog.String("task", name))

	if err := m.tasks[name](ctx); err != nil {
		m.logger.ErrorContext(ctx, "task failed",
			slog.String("task", name),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return err
	}

	m.logger.DebugContext(ctx, "task completed",
		slog.String("task", name),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Shutdown returns a shutdown function for the job manager.
func (m *Manager) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		return m.Stop(ctx)
	}
}

// StartFunc returns a startup function for the job manager.
func (m *Manager) StartFunc() func(context.Context) error {
	return func(ctx context.Context) error {
		return m.Start(ctx)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
