package client

import (
	"math"
	"time"
)

// backoff returns the delay inserted before the given retry. attempt is
// 1-indexed: the delay after attempt n is base * 2^(n-1), capped at max.
// The schedule is deterministic (no jitter) so observed delays follow
// base, 2*base, 4*base, ...
func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 1 {
		return 0
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if max > 0 && delay > float64(max) {
		delay = float64(max)
	}

	return time.Duration(delay)
}
