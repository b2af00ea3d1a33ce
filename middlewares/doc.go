// Package middlewares provides the HTTP middleware used in front of the
// notification endpoints.
//
// # Request ID
//
// RequestID assigns an ID to each request. Well-formed upstream IDs are kept,
// anything else is replaced by a fresh ULID. Pair it with RequestIDExtractor
// so every log line carries request_id:
//
//	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor())
//	app := server.New(
//	    server.WithLogger(log),
//	    server.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns panics into *PanicError so the error handler can answer with
// a JSON 500 instead of a dropped connection.
//
// # CORS
//
// CORS answers preflight requests for the website forms and adds the
// Access-Control-* headers for allowed origins:
//
//	middlewares.CORS(middlewares.WithAllowOrigins("https://www.mitra-sanitaer.de"))
//
// # Timeout
//
// Timeout bounds request handling and returns *TimeoutError when exceeded.
// Notification cycles that already started keep running; the dispatcher
// detaches them from the request context.
//
// # Rate limit
//
// RateLimit admits each client fingerprint (IP and User-Agent) through a
// ratelimit.Limiter. Rejected requests get 429 with Retry-After:
//
//	limiter := ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimit)
//	r.POST("/api/contact", h.contact, middlewares.RateLimit(limiter))
//
// # Metrics
//
// Metrics records request counts and latency per route pattern in a
// Prometheus registry.
package middlewares
