// Package decorate wraps address providers with timeouts, rate limiting and retries.
//
// A decorated provider implements every lookup interface. Operations the wrapped
// provider lacks return types.ErrUnsupportedOperation, which the dispatcher treats
// as "not supported" rather than as a failure.
package decorate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/retry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Provider decorates another provider
type Provider struct {
	inner   types.Provider
	timeout time.Duration
	limiter *rate.Limiter
	retrier *retry.RetryExecutor
	logger  *logging.Logger
}

// Option configures a decorated provider
type Option func(*Provider)

// WithTimeout bounds each attempt. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithRateLimit allows rps calls per second with the given burst. Callers wait for a
// token; a wait that cannot finish before the context deadline fails with a rate-limit error.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Provider) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries retryable provider errors according to policy.
func WithRetry(policy *retry.RetryPolicy) Option {
	return func(p *Provider) {
		if policy == nil || policy.MaxRetries <= 0 {
			return
		}
		p.retrier = retry.NewRetryExecutor(policy, nil)
	}
}

// WithLogger sets the logger used for retry messages
func WithLogger(logger *logging.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Wrap decorates inner. When no option takes effect inner is returned unchanged.
func Wrap(inner types.Provider, opts ...Option) types.Provider {
	p := &Provider{inner: inner, logger: logging.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 && p.limiter == nil && p.retrier == nil {
		return inner
	}
	if p.retrier != nil {
		name := inner.Name()
		p.retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
			p.logger.Debugf("[%s] retry %d in %s after: %v", name, attempt, delay, err)
		}
	}
	return p
}

func (p *Provider) Name() string             { return p.inner.Name() }
func (p *Provider) Type() types.ProviderType { return p.inner.Type() }
func (p *Provider) Description() string      { return p.inner.Description() }

// Unwrap returns the decorated provider
func (p *Provider) Unwrap() types.Provider {
	return p.inner
}

// LookupDetails implements types.DetailsProvider
func (p *Provider) LookupDetails(ctx context.Context, raw string) (*types.AddressData, error) {
	dp, ok := p.inner.(types.DetailsProvider)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}
	return run(ctx, p, types.OperationDetails, func(ctx context.Context) (*types.AddressData, error) {
		return dp.LookupDetails(ctx, raw)
	})
}

// LookupExtendedDetails implements types.ExtendedDetailsProvider
func (p *Provider) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) (*types.AddressData, error) {
	ep, ok := p.inner.(types.ExtendedDetailsProvider)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}
	return run(ctx, p, types.OperationExtendedDetails, func(ctx context.Context) (*types.AddressData, error) {
		return ep.LookupExtendedDetails(ctx, selected)
	})
}

// SuggestByText implements types.TextSuggestionProvider
func (p *Provider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	tp, ok := p.inner.(types.TextSuggestionProvider)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}
	return run(ctx, p, types.OperationSuggestByText, func(ctx context.Context) ([]types.AddressData, error) {
		return tp.SuggestByText(ctx, raw, count)
	})
}

// SuggestByCoordinates implements types.CoordinateSuggestionProvider
func (p *Provider) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) ([]types.AddressData, error) {
	cp, ok := p.inner.(types.CoordinateSuggestionProvider)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}
	return run(ctx, p, types.OperationSuggestByCoordinates, func(ctx context.Context) ([]types.AddressData, error) {
		return cp.SuggestByCoordinates(ctx, lat, lon, count)
	})
}

type outcome[T any] struct {
	value T
	err   error
}

// run passes fn through the rate limiter and timeout, retrying when configured.
// Only the value of the attempt that returned is kept.
func run[T any](ctx context.Context, p *Provider, op types.Operation, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	call := func(ctx context.Context) error {
		value, err := attempt(ctx, p, fn)
		if err == nil || errors.Is(err, types.ErrUnsupportedOperation) {
			result = value
			return err
		}
		pe := types.AsProviderError(p.inner.Name(), err)
		if pe.Operation == "" {
			pe.WithOperation(op)
		}
		if pe.Type == "" {
			pe.Type = p.inner.Type()
		}
		return pe
	}

	var err error
	if p.retrier == nil {
		err = call(ctx)
	} else {
		err = p.retrier.Execute(ctx, call)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func attempt[T any](ctx context.Context, p *Provider, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, types.NewRateLimitError(p.inner.Name(), 0).WithOriginalErr(err)
		}
	}

	if p.timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: types.NewProviderError(p.inner.Name(), types.ErrCodePanic, fmt.Sprintf("panic: %v", r))}
			}
		}()
		value, err := fn(callCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, types.NewTimeoutError(p.inner.Name(), fmt.Sprintf("lookup timed out after %s", p.timeout)).
			WithOriginalErr(callCtx.Err())
	}
}
