package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterWaitDelaysSameHost(t *testing.T) {
	t.Parallel()

	l := New(Config{
		DefaultRPS:   10, // 10 requests per second = 100ms interval
		DefaultBurst: 1,
	})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://jobs.example.com/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://jobs.example.com/b"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// A different host has its own bucket.
	start = time.Now()
	require.NoError(t, l.Wait(ctx, "https://careers.example.org/c"))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.001, DefaultBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://slow.example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://slow.example.com"))
}

func TestLimiterAllow(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.001, DefaultBurst: 2})
	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"))
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("client"))
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", Host("https://Example.COM:8443/jobs?id=1"))
	require.Equal(t, "unknown", Host("not a url"))
	require.Equal(t, "unknown", Host("http://%"))
}
