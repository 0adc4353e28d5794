package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// transientMarkers are substrings identifying provider errors worth
// retrying. Auth and validation failures are not in this list, so they
// fail the attempt immediately.
var transientMarkers = []string{
	"429",
	"529",
	"500",
	"502",
	"503",
	"overloaded",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"unavailable",
	"timeout",
	"deadline exceeded",
	"connection reset",
	"temporarily",
}

// isTransientError reports whether an analyzer call is worth retrying
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to maxAttempts times with a fixed delay between
// attempts. Only transient errors are retried; any other error returns
// immediately. The context aborts the inter-attempt wait.
func withRetry(ctx context.Context, maxAttempts int, delay time.Duration, logger arbor.ILogger, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isTransientError(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Msg("Transient analyzer error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
