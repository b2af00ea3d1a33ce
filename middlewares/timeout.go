package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/tech-artist89/mitra/internal/server"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 60 * time.Second

// Timeout returns middleware that enforces a request deadline.
// The handler receives a context carrying the deadline; when it is exceeded
// the middleware returns *TimeoutError without waiting for the handler.
// A handler that ignores the deadline keeps running in the background, so
// responses it writes afterwards are dropped by the error path.
func Timeout(timeout time.Duration) server.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			c.Set(timeoutContextKey{}, ctx)

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return &TimeoutError{Duration: timeout}
				}
				return ctx.Err()
			}
		}
	}
}

// timeoutContextKey is used to store the timeout context.
type timeoutContextKey struct{}

// GetTimeoutContext returns the deadline-bound context set by Timeout,
// or the request context when the middleware is not installed.
func GetTimeoutContext(c server.Context) context.Context {
	if v, ok := c.Get(timeoutContextKey{}).(context.Context); ok {
		return v
	}
	return c.Context()
}
