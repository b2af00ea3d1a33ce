package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/middlewares"
	"github.com/tech-artist89/mitra/pkg/ratelimit"
)

type failingAdmitter struct{ err error }

func (f failingAdmitter) Admit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, f.err
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{
		Max:    2,
		Window: 15 * time.Minute,
	}, ratelimit.WithClock(clock))

	mw := middlewares.RateLimit(limiter, middlewares.WithRateLimitClock(clock))
	calls := 0
	handler := mw(func(c server.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	})

	call := func(ip, ua string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = ip + ":40000"
		req.Header.Set("User-Agent", ua)
		rec := httptest.NewRecorder()
		return rec, handler(newTestContext(rec, req))
	}

	rec, err := call("192.0.2.10", "Firefox")
	require.NoError(t, err)
	require.Equal(t, "2", rec.Header().Get(middlewares.HeaderRateLimitLimit))
	require.Equal(t, "1", rec.Header().Get(middlewares.HeaderRateLimitRemaining))
	require.Equal(t, strconv.FormatInt(now.Add(15*time.Minute).Unix(), 10), rec.Header().Get(middlewares.HeaderRateLimitReset))

	rec, err = call("192.0.2.10", "Firefox")
	require.NoError(t, err)
	require.Equal(t, "0", rec.Header().Get(middlewares.HeaderRateLimitRemaining))

	rec, err = call("192.0.2.10", "Firefox")
	he := server.AsHTTPError(err)
	require.NotNil(t, he)
	require.Equal(t, http.StatusTooManyRequests, he.StatusCode())
	require.Equal(t, "rate_limited", he.ErrorCode)
	require.Equal(t, map[string]any{"retryAfter": 900}, he.Details)
	require.Equal(t, "900", rec.Header().Get("Retry-After"))
	require.Equal(t, 2, calls)

	// Same address with another browser is a different client.
	_, err = call("192.0.2.10", "Safari")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{})
	handler := middlewares.RateLimit(limiter)(func(c server.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for range 10 {
		rec := httptest.NewRecorder()
		require.NoError(t, handler(newTestContext(rec, httptest.NewRequest(http.MethodPost, "/", nil))))
		require.Empty(t, rec.Header().Get(middlewares.HeaderRateLimitLimit))
	}
}

func TestRateLimit_StoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.Join(ratelimit.ErrStoreFailed, errors.New("connection refused"))
	handler := middlewares.RateLimit(failingAdmitter{err: storeErr})(func(c server.Context) error {
		t.Fatal("handler must not run")
		return nil
	})

	ctx := newTestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	err := handler(ctx)

	he := server.AsHTTPError(err)
	require.NotNil(t, he)
	require.Equal(t, http.StatusServiceUnavailable, he.StatusCode())
	require.ErrorIs(t, err, middlewares.ErrLimiterUnavailable)
	require.ErrorIs(t, err, ratelimit.ErrStoreFailed)
	require.Contains(t, ctx.logs.all(), "rate limit admission failed")
}
