// Package events provides notify.EventSink implementations.
package events

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger writes every event as a structured log record.
// Failure events are logged at warn level.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a log-backed sink.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Logger{logger: l}
}

// Emit implements notify.EventSink.
func (s *Logger) Emit(ctx context.Context, name string, attrs ...slog.Attr) {
	level := slog.LevelInfo
	if strings.HasSuffix(name, "failed") {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, name, attrs...)
}

// Metrics counts events by name and recipient role.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics registers the event counter with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Notification pipeline events by name and recipient role.",
	}, []string{"event", "role"})

	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &Metrics{events: events}, nil
}

// Emit implements notify.EventSink.
func (m *Metrics) Emit(_ context.Context, name string, attrs ...slog.Attr) {
	role := ""
	for _, a := range attrs {
		if a.Key == "role" {
			role = a.Value.String()
			break
		}
	}
	m.events.WithLabelValues(name, role).Inc()
}

// Sink is the method set shared by all sinks in this package.
type Sink interface {
	Emit(ctx context.Context, name string, attrs ...slog.Attr)
}

// Multi fans events out to several sinks in order.
type Multi []Sink

// Emit implements notify.EventSink.
func (m Multi) Emit(ctx context.Context, name string, attrs ...slog.Attr) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, name, attrs...)
		}
	}
}
