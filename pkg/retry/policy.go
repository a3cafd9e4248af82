// Package retry provides retry policies and an executor with exponential backoff.
// Only errors that classify as retryable ProviderErrors are retried.
package retry

import (
	"errors"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// RetryPolicy defines the configuration for retry behavior
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries)
	MaxRetries int

	// InitialDelay is the initial delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay increases between retries
	Multiplier float64

	// Jitter adds randomness to delays to prevent thundering herd
	// Range: 0.0 (no jitter) to 1.0 (full jitter)
	Jitter float64
}

// DefaultRetryPolicy returns a retry policy suited to address lookups, which are
// interactive and should fail over to the next provider quickly.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// ShouldRetry determines if an error should trigger another attempt.
// attempt is zero-based: 0 is the first retry decision.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	if errors.Is(err, types.ErrUnsupportedOperation) {
		return false
	}

	var pe *types.ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

// Validate normalizes zero values so the policy can be used directly.
func (p *RetryPolicy) Validate() *RetryPolicy {
	clone := p.Clone()
	if clone.MaxRetries < 0 {
		clone.MaxRetries = 0
	}
	if clone.Multiplier < 1 {
		clone.Multiplier = 1
	}
	if clone.Jitter < 0 {
		clone.Jitter = 0
	}
	if clone.Jitter > 1 {
		clone.Jitter = 1
	}
	if clone.MaxDelay > 0 && clone.InitialDelay > clone.MaxDelay {
		clone.InitialDelay = clone.MaxDelay
	}
	return clone
}

// Clone creates a copy of the retry policy
func (p *RetryPolicy) Clone() *RetryPolicy {
	clone := *p
	return &clone
}

// WithMaxRetries returns a new policy with updated MaxRetries
func (p *RetryPolicy) WithMaxRetries(maxRetries int) *RetryPolicy {
	clone := p.Clone()
	clone.MaxRetries = maxRetries
	return clone
}

// WithInitialDelay returns a new policy with updated InitialDelay
func (p *RetryPolicy) WithInitialDelay(delay time.Duration) *RetryPolicy {
	clone := p.Clone()
	clone.InitialDelay = delay
	return clone
}

// WithMaxDelay returns a new policy with updated MaxDelay
func (p *RetryPolicy) WithMaxDelay(delay time.Duration) *RetryPolicy {
	clone := p.Clone()
	clone.MaxDelay = delay
	return clone
}

// WithMultiplier returns a new policy with updated Multiplier
func (p *RetryPolicy) WithMultiplier(multiplier float64) *RetryPolicy {
	clone := p.Clone()
	clone.Multiplier = multiplier
	return clone
}

// WithJitter returns a new policy with updated Jitter
func (p *RetryPolicy) WithJitter(jitter float64) *RetryPolicy {
	clone := p.Clone()
	clone.Jitter = jitter
	return clone
}
