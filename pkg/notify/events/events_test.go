package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/pkg/notify/events"
)

func TestLogger_Emit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := events.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), "message.failed",
		slog.String("correlation_id", "KONTAKT-1"),
		slog.String("role", "customer"),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "message.failed", rec["msg"])
	require.Equal(t, "WARN", rec["level"])
	require.Equal(t, "KONTAKT-1", rec["correlation_id"])
}

func TestMetrics_Emit(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := events.NewMetrics(reg, "mitra")
	require.NoError(t, err)

	m.Emit(context.Background(), "message.delivered", slog.String("role", "company"))
	m.Emit(context.Background(), "message.delivered", slog.String("role", "company"))
	m.Emit(context.Background(), "notification.completed")

	series, err := testutil.GatherAndCount(reg, "mitra_notify_events_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)

	_, err = events.NewMetrics(reg, "mitra")
	require.Error(t, err, "duplicate registration")
}

func TestMulti_Emit(t *testing.T) {
	t.Parallel()

	var a, b []string
	record := func(dst *[]string) events.Sink {
		return sinkFunc(func(_ context.Context, name string, _ ...slog.Attr) { *dst = append(*dst, name) })
	}

	events.Multi{record(&a), nil, record(&b)}.Emit(context.Background(), "document.generated")
	require.Equal(t, []string{"document.generated"}, a)
	require.Equal(t, []string{"document.generated"}, b)
}

type sinkFunc func(ctx context.Context, name string, attrs ...slog.Attr)

func (f sinkFunc) Emit(ctx context.Context, name string, attrs ...slog.Attr) { f(ctx, name, attrs...) }
