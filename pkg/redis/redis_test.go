package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, Config{})
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	t.Run("invalid scheme", func(t *testing.T) {
		t.Parallel()

		for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgresql://localhost"} {
			client, err := Open(ctx, Config{URL: url})
			require.ErrorIs(t, err, ErrInvalidURL, url)
			require.Nil(t, client)
		}
	})

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, Config{URL: "redis://localhost:6379/notanumber"})
		require.ErrorIs(t, err, ErrInvalidURL)
		require.Nil(t, client)
	})

	t.Run("connects to server", func(t *testing.T) {
		t.Parallel()

		srv := miniredis.RunT(t)
		client, err := Open(ctx, Config{URL: "redis://" + srv.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, Healthcheck(client)(ctx))
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		t.Parallel()

		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		client, err := Open(ctx, Config{
			URL:           "redis://" + addr,
			RetryAttempts: 2,
			RetryInterval: 10 * time.Millisecond,
			DialTimeout:   100 * time.Millisecond,
		})
		require.ErrorIs(t, err, ErrUnreachable)
		require.Nil(t, client)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Healthcheck(nil)(context.Background()), ErrHealthcheckFailed)
}

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{err: errors.New("boom")}
	err := Shutdown(c)(context.Background())
	require.EqualError(t, err, "boom")
	require.True(t, c.closed)
}

func TestWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	require.ErrorIs(t, wait(ctx, 10*time.Second), context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
