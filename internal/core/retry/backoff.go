package retry

import (
	"math"
	"time"
)

// Delay returns how long to wait before the next attempt once attempt (1-based)
// has failed: base * factor^(attempt-1), capped at max.
func Delay(attempt int, base, max time.Duration, factor float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(base) * math.Pow(factor, float64(attempt-1))
	if delay > float64(max) || math.IsInf(delay, 1) || math.IsNaN(delay) {
		return max
	}
	return time.Duration(delay)
}
