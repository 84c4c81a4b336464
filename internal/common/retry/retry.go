// internal/common/retry/retry.go

// Package retry provides the single retry-policy abstraction applied to every
// external-collaborator call made by the pipeline.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy defines bounded exponential-backoff retry behavior.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries everything.
	Retryable func(error) bool
}

// DefaultPolicy covers transient collaborator failures: three attempts with
// short exponential backoff.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   200 * time.Millisecond,
	MaxDelay:    5 * time.Second,
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// The delay before attempt n is BaseDelay * 2^(n-1), capped at MaxDelay.
func (p Policy) Do(ctx context.Context, operationName string, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return fmt.Errorf("operation %s cancelled: %w", operationName, ctx.Err())
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operationName, attempts, lastErr)
}
