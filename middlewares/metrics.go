package middlewares

import (
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tech-artist89/mitra/internal/server"
)

// Metrics registers request counters with reg and returns middleware that
// records them per route pattern. Unmatched routes are grouped under
// "unmatched" to keep label cardinality bounded.
func Metrics(reg prometheus.Registerer, namespace string) (server.Middleware, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{requests, duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			start := time.Now()
			err := next(c)

			route := "unmatched"
			if rc := chi.RouteContext(c.Request().Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}

			code := statusCode(c, err)
			method := c.Request().Method
			requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
			duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}, nil
}

// statusCode reports the status that was or will be written for the request.
func statusCode(c server.Context, err error) int {
	if rw := c.ResponseWriter(); rw != nil && rw.Written() {
		return rw.Status()
	}
	if err == nil {
		return 200
	}
	if he := server.AsHTTPError(err); he != nil {
		return he.StatusCode()
	}
	if _, ok := AsTimeoutError(err); ok {
		return 504
	}
	return 500
}
