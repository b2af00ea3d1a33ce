package middlewares_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tech-artist89/mitra/internal/server"
)

// testContext is a minimal server.Context for calling middleware directly.
type testContext struct {
	response http.ResponseWriter
	request  *http.Request
	logs     *logRecorder
	mu       sync.Mutex
}

func newTestContext(w http.ResponseWriter, r *http.Request) *testContext {
	return &testContext{response: w, request: r, logs: &logRecorder{}}
}

func (c *testContext) Deadline() (time.Time, bool)   { return c.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}         { return c.Context().Done() }
func (c *testContext) Err() error                    { return c.Context().Err() }
func (c *testContext) Value(key any) any             { return c.Context().Value(key) }
func (c *testContext) Request() *http.Request        { return c.req() }
func (c *testContext) Response() http.ResponseWriter { return c.response }
func (c *testContext) Context() context.Context      { return c.req().Context() }
func (c *testContext) Param(string) string           { return "" }
func (c *testContext) Query(name string) string      { return c.req().URL.Query().Get(name) }
func (c *testContext) Header(name string) string     { return c.req().Header.Get(name) }
func (c *testContext) SetHeader(name, value string)  { c.response.Header().Set(name, value) }

func (c *testContext) ClientIP() string {
	host, _, err := net.SplitHostPort(c.req().RemoteAddr)
	if err != nil {
		return c.req().RemoteAddr
	}
	return host
}

func (c *testContext) ReadBody(limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.req().Body, limit))
}

func (c *testContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *testContext) String(code int, s string) error {
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *testContext) NoContent(code int) error { c.response.WriteHeader(code); return nil }

func (c *testContext) Error(code int, message string, opts ...server.HTTPErrorOption) *server.HTTPError {
	return server.NewHTTPError(code, message, opts...)
}

func (c *testContext) Written() bool                          { return false }
func (c *testContext) ResponseWriter() *server.ResponseWriter { return nil }
func (c *testContext) Logger() *slog.Logger                   { return slog.New(slog.DiscardHandler) }
func (c *testContext) LogDebug(msg string, attrs ...any)      { c.logs.add(msg) }
func (c *testContext) LogInfo(msg string, attrs ...any)       { c.logs.add(msg) }
func (c *testContext) LogWarn(msg string, attrs ...any)       { c.logs.add(msg) }
func (c *testContext) LogError(msg string, attrs ...any)      { c.logs.add(msg) }
func (c *testContext) Get(key any) any                        { return c.Context().Value(key) }

func (c *testContext) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *testContext) req() *http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

type logRecorder struct {
	messages []string
	mu       sync.Mutex
}

func (l *logRecorder) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *logRecorder) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// Compile-time check.
var _ server.Context = (*testContext)(nil)
