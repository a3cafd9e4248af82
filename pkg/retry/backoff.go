package retry

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// BackoffStrategy calculates delays between attempts
type BackoffStrategy interface {
	// NextDelay calculates the next retry delay based on attempt number and error
	NextDelay(attempt int, err error) time.Duration
}

// ExponentialBackoffStrategy implements exponential backoff with proportional jitter
type ExponentialBackoffStrategy struct {
	policy *RetryPolicy

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExponentialBackoffStrategy creates a new exponential backoff strategy
func NewExponentialBackoffStrategy(policy *RetryPolicy) *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		policy: policy,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // G404: math/rand is sufficient for jitter
	}
}

// NextDelay returns InitialDelay * Multiplier^attempt capped at MaxDelay.
// A rate-limit error carrying RetryAfter overrides the computed delay.
func (s *ExponentialBackoffStrategy) NextDelay(attempt int, err error) time.Duration {
	if retryAfter := retryAfterOf(err); retryAfter > 0 {
		if s.policy.MaxDelay > 0 && retryAfter > s.policy.MaxDelay {
			return s.policy.MaxDelay
		}
		return retryAfter
	}

	delay := s.policy.InitialDelay
	if attempt > 0 {
		delay = time.Duration(float64(s.policy.InitialDelay) * math.Pow(s.policy.Multiplier, float64(attempt)))
	}
	if s.policy.MaxDelay > 0 && delay > s.policy.MaxDelay {
		delay = s.policy.MaxDelay
	}
	return s.applyJitter(delay)
}

// applyJitter spreads delay over [delay - j/2, delay + j/2] where j = delay * Jitter.
func (s *ExponentialBackoffStrategy) applyJitter(delay time.Duration) time.Duration {
	if s.policy.Jitter <= 0 || delay <= 0 {
		return delay
	}
	s.mu.Lock()
	r := s.rng.Float64()
	s.mu.Unlock()

	jitterAmount := float64(delay) * s.policy.Jitter
	return delay - time.Duration(jitterAmount/2) + time.Duration(r*jitterAmount)
}

// ConstantBackoffStrategy implements a constant delay between retries
type ConstantBackoffStrategy struct {
	delay time.Duration
}

// NewConstantBackoffStrategy creates a new constant backoff strategy
func NewConstantBackoffStrategy(delay time.Duration) *ConstantBackoffStrategy {
	return &ConstantBackoffStrategy{delay: delay}
}

// NextDelay returns a constant delay regardless of attempt number
func (s *ConstantBackoffStrategy) NextDelay(attempt int, err error) time.Duration {
	if retryAfter := retryAfterOf(err); retryAfter > 0 {
		return retryAfter
	}
	return s.delay
}

func retryAfterOf(err error) time.Duration {
	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		return time.Duration(pe.RetryAfter) * time.Second
	}
	return 0
}
