package retry

import (
	"context"
	"fmt"
	"time"
)

// RetryExecutor handles the execution of operations with retry logic
type RetryExecutor struct {
	policy   *RetryPolicy
	strategy BackoffStrategy

	// OnRetry, when set, is called before sleeping for the next attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryExecutor creates a new retry executor with the given policy and strategy.
// A nil strategy uses exponential backoff over the policy.
func NewRetryExecutor(policy *RetryPolicy, strategy BackoffStrategy) *RetryExecutor {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	policy = policy.Validate()
	if strategy == nil {
		strategy = NewExponentialBackoffStrategy(policy)
	}
	return &RetryExecutor{policy: policy, strategy: strategy}
}

// Execute calls operation until it succeeds, returns a non-retryable error, the retry
// budget is spent or ctx is done. The last operation error is returned unwrapped so
// callers can classify it.
func (r *RetryExecutor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		if !r.policy.ShouldRetry(err, attempt) {
			return err
		}

		delay := r.strategy.NextDelay(attempt, err)
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, delay, err)
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt+1, err)
		}
		attempt++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
