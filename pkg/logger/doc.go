// Package logger builds the service's structured logger.
//
// Records are written as JSON (or text) to stdout through log/slog. A
// [LogHandlerDecorator] injects request-scoped attributes (request id,
// correlation id) pulled from the context on every call. When a Sentry DSN
// is configured, records are fanned out to Sentry as well; errors become
// Sentry issues and warnings are kept as logs.
//
//	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "submission accepted", slog.String("kind", "contact"))
//
// An empty DSN falls back to stdout-only logging, so the same wiring works
// locally and in production.
package logger
