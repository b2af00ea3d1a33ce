package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/pkg/ratelimit"
)

// Rate-limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// Admitter decides whether a client fingerprint may proceed.
// *ratelimit.Limiter satisfies it.
type Admitter interface {
	Admit(ctx context.Context, fingerprint string) (ratelimit.Decision, error)
}

// RateLimitConfig configures the rate-limit middleware.
type RateLimitConfig struct {
	Clock   func() time.Time
	Message string // Message of the 429 response
}

// RateLimitOption configures RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithRateLimitClock overrides the clock used for Retry-After.
func WithRateLimitClock(clock func() time.Time) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if clock != nil {
			cfg.Clock = clock
		}
	}
}

// WithRateLimitMessage sets the message of rejected requests.
func WithRateLimitMessage(msg string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if msg != "" {
			cfg.Message = msg
		}
	}
}

// RateLimit returns middleware that admits requests through limiter, keyed
// by the fingerprint of client IP and User-Agent.
// Rejected requests end with 429 and Retry-After; a failing store ends
// with 503 and ErrLimiterUnavailable.
func RateLimit(limiter Admitter, opts ...RateLimitOption) server.Middleware {
	cfg := &RateLimitConfig{
		Clock:   time.Now,
		Message: "Zu viele Anfragen. Bitte versuchen Sie es später erneut.",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			fp := ratelimit.Fingerprint(c.ClientIP(), c.Header("User-Agent"))

			d, err := limiter.Admit(c.Context(), fp)
			if err != nil {
				c.LogError("rate limit admission failed", "error", err)
				return server.ErrServiceUnavailable(
					"Der Dienst ist vorübergehend nicht verfügbar.",
					server.WithErrorCode("rate_limiter_unavailable"),
					server.WithError(errors.Join(ErrLimiterUnavailable, err)),
				)
			}

			if d.Limit > 0 {
				c.SetHeader(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
				c.SetHeader(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
				c.SetHeader(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if !d.Allowed {
				retry := d.RetryAfter(cfg.Clock())
				seconds := int(retry / time.Second)
				c.SetHeader("Retry-After", strconv.Itoa(seconds))
				c.LogWarn("rate limit exceeded", "retry_after", retry.String())
				return server.NewHTTPError(http.StatusTooManyRequests, cfg.Message,
					server.WithErrorCode("rate_limited"),
					server.WithDetails(map[string]any{"retryAfter": seconds}),
				)
			}

			return next(c)
		}
	}
}
