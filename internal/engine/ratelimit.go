package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps aggregate throughput to
// bytesPerSec. The burst is set to 1 MB to allow natural read-size chunks
// through without unnecessary blocking on small reads.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// throttle blocks until lim admits n bytes. Chunks larger than the burst are
// admitted in burst-sized pieces. A nil limiter never blocks. It returns the
// context's error when ctx ends first.
func throttle(ctx context.Context, lim *rate.Limiter, n int) error {
	if lim == nil {
		return nil
	}
	burst := lim.Burst()
	for n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := min(n, burst)
		// WaitN fails early with its own error when the delay would pass the
		// deadline; reserving keeps ctx.Err() as the cause.
		r := lim.ReserveN(time.Now(), step)
		if delay := r.Delay(); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				r.Cancel()
				return ctx.Err()
			}
		}
		n -= step
	}
	return nil
}
