// Command server runs the notification backend: it accepts contact and
// configurator submissions over HTTP and turns them into emails.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tech-artist89/mitra/internal/config"
	"github.com/tech-artist89/mitra/internal/handlers"
	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/middlewares"
	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/document/gotenberg"
	"github.com/tech-artist89/mitra/pkg/health"
	"github.com/tech-artist89/mitra/pkg/job"
	"github.com/tech-artist89/mitra/pkg/logger"
	"github.com/tech-artist89/mitra/pkg/mailer"
	"github.com/tech-artist89/mitra/pkg/mailer/transport"
	"github.com/tech-artist89/mitra/pkg/notify"
	"github.com/tech-artist89/mitra/pkg/notify/events"
	"github.com/tech-artist89/mitra/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor()).With(slog.String("app", cfg.App.Name))
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Warn("configuration warning", slog.String("warning", w))
	}

	ctx := context.Background()
	var (
		checks      []server.HealthOption
		optional    []string
		runOpts     = []server.RunOption{server.Logger(log), server.ShutdownTimeout(cfg.HTTP.ShutdownTimeout)}
		shutdownFns []func(context.Context) error
	)

	// Stores opened so far are closed when a later step fails.
	fail := func(err error) error {
		for _, fn := range shutdownFns {
			_ = fn(ctx)
		}
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter, stores, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	checks = append(checks, stores.checks...)
	shutdownFns = append(shutdownFns, stores.shutdown...)

	selection, err := transport.Select(ctx, cfg.Mail, log)
	if err != nil {
		return fail(err)
	}
	if p, ok := selection.Transport.(mailer.Prober); ok && !selection.Degraded {
		checks = append(checks, server.WithReadinessCheck("mail", p.Probe))
		optional = append(optional, "mail")
	}

	var engine document.RenderEngine = document.HTMLEngine{}
	if cfg.Gotenberg.URL != "" {
		g := gotenberg.New(cfg.Gotenberg.URL, gotenberg.WithTimeout(cfg.Gotenberg.Timeout))
		engine = g
		checks = append(checks, server.WithReadinessCheck("gotenberg", g.Probe))
		optional = append(optional, "gotenberg")
	}
	renderer := document.NewRenderer(engine,
		document.WithCompany(cfg.Company),
		document.WithTimeout(cfg.Notify.RenderTimeout),
	)

	sink := events.Multi{events.NewLogger(log)}
	eventMetrics, err := events.NewMetrics(reg, cfg.App.MetricsNamespace)
	if err != nil {
		return fail(err)
	}
	sink = append(sink, eventMetrics)

	dispatchOpts := []notify.Option{
		notify.WithDocuments(renderer),
		notify.WithEventSink(sink),
		notify.WithCompany(cfg.Company),
		notify.WithDegraded(selection.Degraded),
	}
	if cfg.Storage.Enabled() {
		archive, err := storage.New(cfg.Storage)
		if err != nil {
			return fail(err)
		}
		dispatchOpts = append(dispatchOpts, notify.WithArchive(archive))
		checks = append(checks, server.WithReadinessCheck("storage", archive.Healthcheck))
		optional = append(optional, "storage")
	}
	dispatcher := notify.New(selection.Transport, cfg.Notify, dispatchOpts...)

	jobs, err := job.NewManager(
		job.WithLogger(log),
		job.WithFunc("ratelimit_sweep", sweepSchedule(cfg), func(ctx context.Context) error {
			n, err := limiter.Sweep(ctx)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "rate limit state swept", slog.Int("removed", n))
			return nil
		}),
	)
	if err != nil {
		return fail(err)
	}
	checks = append(checks, server.WithReadinessCheck("jobs", job.Healthcheck(jobs)))

	httpMetrics, err := middlewares.Metrics(reg, cfg.App.MetricsNamespace)
	if err != nil {
		return fail(err)
	}

	checks = append(checks, server.WithHealthOptions(
		health.WithLogger(log),
		health.WithOptional(optional...),
	))

	app := server.New(
		server.WithLogger(log),
		server.WithRealIP(cfg.HTTP.TrustProxy),
		server.WithErrorHandler(handlers.ErrorHandler),
		server.WithNotFoundHandler(handlers.NotFound),
		server.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		server.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			httpMetrics,
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.HTTP.CORSOrigins...)),
			middlewares.Timeout(cfg.HTTP.RequestTimeout),
		),
		server.WithHandlers(handlers.NewNotifications(dispatcher,
			handlers.WithMiddleware(middlewares.RateLimit(limiter)),
			handlers.WithBodyLimit(cfg.HTTP.BodyLimit),
			handlers.WithCompany(cfg.Company),
		)),
		server.WithMount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		server.WithHealthChecks(checks...),
	)

	runOpts = append(runOpts,
		server.StartupHook(jobs.StartFunc()),
		server.ShutdownHook(jobs.Shutdown()),
	)
	for _, fn := range shutdownFns {
		runOpts = append(runOpts, server.ShutdownHook(fn))
	}

	log.Info("starting notification backend",
		slog.String("address", cfg.HTTP.Addr),
		slog.String("mail_provider", selection.Provider),
		slog.Bool("degraded", selection.Degraded),
		slog.String("rate_limit_store", cfg.RateLimit.Store),
	)

	if err := app.Run(cfg.HTTP.Addr, runOpts...); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		return err
	}
	return nil
}

// sweepSchedule disables scheduled sweeps when limiting is off.
func sweepSchedule(cfg config.Config) string {
	if !cfg.RateLimit.Enabled() {
		return ""
	}
	return cfg.RateLimit.SweepSchedule
}
