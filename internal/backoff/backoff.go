// Package backoff provides the retry delay policy for external API calls.
package backoff

import (
	"math/rand/v2"
	"time"
)

const maxDelay = 30 * time.Second

// Delay returns the exponential backoff for the given attempt with random
// jitter of up to ±25%. Attempt 0 returns zero so the first call is
// immediate.
func Delay(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap the shift so the multiplication cannot overflow.
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > maxDelay {
		d = maxDelay
	}
	// A delay under 2ns leaves no room for jitter; rand.Int64N would
	// reject the non-positive bound.
	half := int64(d) / 2
	if half <= 0 {
		return d
	}
	jitter := time.Duration(rand.Int64N(half)) - d/4
	return d + jitter
}
