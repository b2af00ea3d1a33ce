package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("first status wins", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		require.False(t, rw.Written())
		rw.WriteHeader(http.StatusTooManyRequests)
		rw.WriteHeader(http.StatusOK)

		require.True(t, rw.Written())
		require.Equal(t, http.StatusTooManyRequests, rw.Status())
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("write implies 200 and counts bytes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		n, err := rw.Write([]byte(`{"success":true}`))
		require.NoError(t, err)
		_, err = rw.Write([]byte("\n"))
		require.NoError(t, err)

		require.Equal(t, 16, n)
		require.EqualValues(t, 17, rw.Size())
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "{\"success\":true}\n", rec.Body.String())
	})

	t.Run("status before write is kept", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		rw.WriteHeader(http.StatusBadGateway)
		_, _ = rw.Write([]byte("x"))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, http.StatusBadGateway, rw.Status())
	})

	t.Run("unwrap", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		require.Same(t, rec, rw.Unwrap())
		require.False(t, rec.Flushed)
		rw.Flush()
		require.True(t, rec.Flushed)
	})
}
