// internal/common/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry schedule. Attempts counts total
// executions, not re-executions, so Attempts=1 means no retry.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Backoff  float64 // multiplier applied to Delay after each attempt; <=1 means fixed delay
}

// Fixed returns a policy that retries with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: delay, Backoff: 1}
}

// Exponential returns a policy that doubles the delay after each attempt.
func Exponential(attempts int, baseDelay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: baseDelay, Backoff: 2}
}

// Do runs fn under the policy until it succeeds, the attempts are
// exhausted, or the context is cancelled. The shouldRetry predicate
// decides whether a given error is worth another attempt; a nil
// predicate retries every error.
func Do(ctx context.Context, p Policy, fn func(context.Context) error, shouldRetry func(error) bool) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var lastErr error
	delay := p.Delay

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if shouldRetry != nil && !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == p.Attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, ctx.Err())
		}

		if p.Backoff > 1 {
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", p.Attempts, lastErr)
}
