package fetch

import (
	"math"
	"math/rand"
	"time"
)

// floorDelay is the minimum backoff delay regardless of base and jitter.
const floorDelay = 100 * time.Millisecond

// Delay returns the backoff delay for a 0-based attempt index: base doubled
// per attempt, capped at maxDelay, with ±25% jitter, clamped to
// [floorDelay, maxDelay].
func Delay(attempt int, base, maxDelay time.Duration) time.Duration {
	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}

	jitter := d * 0.25 * (2*rand.Float64() - 1)
	d += jitter

	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}
	if d < float64(floorDelay) {
		d = float64(floorDelay)
	}
	return time.Duration(d)
}
