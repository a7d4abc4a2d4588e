package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBWLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst capped to rate when rate < 1MB", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(1024)
		assert.Equal(t, 1024, lim.Burst())
	})

	t.Run("burst is 1MB when rate >= 1MB", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(10 * 1024 * 1024)
		assert.Equal(t, 1<<20, lim.Burst())
	})
}

func TestThrottle(t *testing.T) {
	t.Parallel()

	t.Run("nil limiter never blocks", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, throttle(context.Background(), nil, 1<<30))
	})

	t.Run("chunks larger than burst are admitted", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(64 << 20)
		// 3 MiB exceeds the 1 MiB burst; WaitN alone would reject it.
		require.NoError(t, throttle(context.Background(), lim, 3<<20))
	})

	t.Run("enforces rate limit", func(t *testing.T) {
		t.Parallel()
		// 10 KB at 5 KB/s should take ~1s after the burst.
		lim := NewBWLimiter(5 * 1024)

		start := time.Now()
		for range 10 {
			require.NoError(t, throttle(context.Background(), lim, 1024))
		}
		assert.Greater(t, time.Since(start), 500*time.Millisecond,
			"rate limiter should slow transfer to ~5KB/s")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(1024)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, throttle(ctx, lim, 1<<20))
	})
}

func TestThrottleDeadlineIsContextError(t *testing.T) {
	t.Parallel()
	lim := NewBWLimiter(1024)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := throttle(ctx, lim, 8<<10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
