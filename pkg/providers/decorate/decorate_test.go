package decorate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/address-provider-kit/internal/testutil"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/retry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// slowProvider blocks until its context is done or the delay elapses.
type slowProvider struct {
	testutil.NameOnlyProvider
	delay time.Duration
}

func (s *slowProvider) LookupDetails(ctx context.Context, raw string) (*types.AddressData, error) {
	select {
	case <-time.After(s.delay):
		return testutil.AddressPtr("Slow St 1", ""), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flakyProvider fails with a retryable error a fixed number of times.
type flakyProvider struct {
	testutil.NameOnlyProvider
	failures int
	calls    int
}

func (f *flakyProvider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, types.NewServerError(f.ProviderName, 503, "unavailable")
	}
	return []types.AddressData{testutil.Address("Main St 1", "")}, nil
}

func TestWrap_NoOptionsReturnsInner(t *testing.T) {
	inner := testutil.NewConfigurableMockProvider("inner")
	assert.Same(t, inner, Wrap(inner))
	assert.Same(t, inner, Wrap(inner, WithTimeout(0), WithRateLimit(0, 0), WithRetry(&retry.RetryPolicy{})))
}

func TestWrap_MissingCapabilityIsUnsupported(t *testing.T) {
	text := testutil.NewTextOnlyProvider("text", testutil.Address("Main St 1", ""))
	p := Wrap(text, WithTimeout(time.Second))

	dp, ok := p.(types.DetailsProvider)
	require.True(t, ok)
	_, err := dp.LookupDetails(context.Background(), "main")
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	cp := p.(types.CoordinateSuggestionProvider)
	_, err = cp.SuggestByCoordinates(context.Background(), 1, 2, 3)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	ep := p.(types.ExtendedDetailsProvider)
	_, err = ep.LookupExtendedDetails(context.Background(), testutil.AddressPtr("a", ""))
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	got, err := p.(types.TextSuggestionProvider).SuggestByText(context.Background(), "main", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "text", p.Name())
	assert.Same(t, text, p.(*Provider).Unwrap())
}

func TestWithTimeout(t *testing.T) {
	slow := &slowProvider{NameOnlyProvider: testutil.NameOnlyProvider{ProviderName: "slow"}, delay: time.Second}
	p := Wrap(slow, WithTimeout(20*time.Millisecond)).(types.DetailsProvider)

	start := time.Now()
	res, err := p.LookupDetails(context.Background(), "x")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrCodeTimeout, pe.Code)
	assert.Equal(t, "slow", pe.Provider)
	assert.Equal(t, types.OperationDetails, pe.Operation)
}

func TestWithTimeout_FastCallSucceeds(t *testing.T) {
	slow := &slowProvider{NameOnlyProvider: testutil.NameOnlyProvider{ProviderName: "fast"}, delay: time.Millisecond}
	p := Wrap(slow, WithTimeout(time.Second)).(types.DetailsProvider)

	res, err := p.LookupDetails(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Slow St 1", res.Address)
}

func TestWithTimeout_PanicBecomesError(t *testing.T) {
	inner := testutil.NewConfigurableMockProvider("panicky").SetPanic(types.OperationDetails, "kaboom")
	p := Wrap(inner, WithTimeout(time.Second)).(types.DetailsProvider)

	_, err := p.LookupDetails(context.Background(), "x")
	assert.Equal(t, types.ErrCodePanic, types.ErrorCodeOf(err))
}

func TestWithRetry(t *testing.T) {
	policy := &retry.RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 1}

	t.Run("recovers after transient failures", func(t *testing.T) {
		flaky := &flakyProvider{NameOnlyProvider: testutil.NameOnlyProvider{ProviderName: "flaky"}, failures: 2}
		p := Wrap(flaky, WithRetry(policy), WithLogger(logging.Discard())).(types.TextSuggestionProvider)

		got, err := p.SuggestByText(context.Background(), "main", 5)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 3, flaky.calls)
	})

	t.Run("gives up after budget", func(t *testing.T) {
		flaky := &flakyProvider{NameOnlyProvider: testutil.NameOnlyProvider{ProviderName: "flaky"}, failures: 10}
		p := Wrap(flaky, WithRetry(policy), WithLogger(logging.Discard())).(types.TextSuggestionProvider)

		got, err := p.SuggestByText(context.Background(), "main", 5)
		assert.Nil(t, got)
		assert.Equal(t, types.ErrCodeServerError, types.ErrorCodeOf(err))
		assert.Equal(t, 3, flaky.calls)
	})

	t.Run("non-retryable errors are not retried", func(t *testing.T) {
		inner := testutil.NewConfigurableMockProvider("plain").
			SetError(types.OperationDetails, errors.New("bad input"))
		p := Wrap(inner, WithRetry(policy), WithLogger(logging.Discard())).(types.DetailsProvider)

		_, err := p.LookupDetails(context.Background(), "x")
		require.Error(t, err)
		assert.Equal(t, 1, inner.CallCount(types.OperationDetails))
		assert.Equal(t, types.ErrCodeUnknown, types.ErrorCodeOf(err))
	})
}

func TestWithRateLimit(t *testing.T) {
	inner := testutil.NewConfigurableMockProvider("limited").SetDetails(testutil.AddressPtr("Main St 1", ""))
	p := Wrap(inner, WithRateLimit(1, 1)).(types.DetailsProvider)

	_, err := p.LookupDetails(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.LookupDetails(ctx, "x")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeRateLimit, types.ErrorCodeOf(err))
	assert.Equal(t, 1, inner.CallCount(types.OperationDetails))
}
