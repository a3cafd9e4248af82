package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultMetricsCollector(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	assert.NotNil(t, collector)

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(0), snapshot.TotalDispatches)
	assert.Equal(t, int64(0), snapshot.Successful)
	assert.Equal(t, int64(0), snapshot.NoResult)
	assert.Equal(t, 0.0, snapshot.SuccessRate)
}

func TestRecordEvent_FallbackDispatch(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	ctx := context.Background()

	events := []types.MetricEvent{
		{Type: types.MetricEventRequest, Operation: types.OperationDetails},
		{
			Type:          types.MetricEventProviderError,
			Operation:     types.OperationDetails,
			ProviderName:  "primary",
			ProviderType:  types.ProviderTypeRemote,
			AttemptNumber: 1,
			Latency:       20 * time.Millisecond,
			ErrorType:     string(types.ErrCodeTimeout),
			ErrorMessage:  "deadline exceeded",
		},
		{
			Type:         types.MetricEventProviderSwitch,
			Operation:    types.OperationDetails,
			FromProvider: "primary",
			ToProvider:   "backup",
		},
		{
			Type:          types.MetricEventSuccess,
			Operation:     types.OperationDetails,
			ProviderName:  "backup",
			ProviderType:  types.ProviderTypeStatic,
			AttemptNumber: 2,
			Latency:       10 * time.Millisecond,
			ResultCount:   1,
		},
	}
	for _, ev := range events {
		require.NoError(t, collector.RecordEvent(ctx, ev))
	}

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TotalDispatches)
	assert.Equal(t, int64(1), snapshot.Successful)
	assert.Equal(t, 1.0, snapshot.SuccessRate)
	assert.False(t, snapshot.FirstRequestTime.IsZero())

	op := snapshot.OperationBreakdown[types.OperationDetails]
	require.NotNil(t, op)
	assert.Equal(t, int64(1), op.Dispatches)
	assert.Equal(t, int64(1), op.Successful)
	assert.Equal(t, int64(1), op.Fallbacks)

	primary := collector.GetProviderMetrics("primary")
	require.NotNil(t, primary)
	assert.Equal(t, int64(1), primary.Attempts)
	assert.Equal(t, int64(1), primary.Failures)
	assert.Equal(t, int64(1), primary.ErrorsByType[string(types.ErrCodeTimeout)])
	assert.Equal(t, "deadline exceeded", primary.LastError)
	assert.Equal(t, 20*time.Millisecond, primary.AverageLatency)

	backup := collector.GetProviderMetrics("backup")
	require.NotNil(t, backup)
	assert.Equal(t, int64(1), backup.Successes)
	assert.Equal(t, types.ProviderTypeStatic, backup.ProviderType)
	assert.Equal(t, int64(1), backup.Operations[types.OperationDetails])
}

func TestRecordEvent_NoResult(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	ctx := context.Background()

	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationSuggestByText}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{
		Type:         types.MetricEventProviderEmpty,
		Operation:    types.OperationSuggestByText,
		ProviderName: "static",
	}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{
		Type:      types.MetricEventNoResult,
		Operation: types.OperationSuggestByText,
		ErrorType: types.NoResultNoMatch,
	}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationSuggestByText}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{
		Type:      types.MetricEventNoResult,
		Operation: types.OperationSuggestByText,
		ErrorType: types.NoResultNoProviders,
	}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventInvalidInput, Operation: types.OperationSuggestByText}))

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(2), snapshot.TotalDispatches)
	assert.Equal(t, int64(2), snapshot.NoResult)
	assert.Equal(t, int64(1), snapshot.NoProviders)
	assert.Equal(t, int64(1), snapshot.InvalidInput)
	assert.Equal(t, int64(1), snapshot.ProviderBreakdown["static"].Empty)
	assert.Nil(t, collector.GetProviderMetrics("missing"))
}

func TestSubscribe(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(2)
	defer sub.Unsubscribe()

	assert.NotEmpty(t, sub.ID())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationDetails}))
	}

	ev := <-sub.Events()
	assert.Equal(t, types.MetricEventRequest, ev.Type)
	<-sub.Events()
	assert.Equal(t, int64(1), sub.OverflowCount())
}

func TestSubscribeTo_FiltersEventTypes(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.SubscribeTo(1, types.MetricEventProviderError)
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationDetails}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{
		Type:         types.MetricEventProviderError,
		Operation:    types.OperationDetails,
		ProviderName: "broken",
	}))
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventSuccess, Operation: types.OperationDetails}))

	ev := <-sub.Events()
	assert.Equal(t, types.MetricEventProviderError, ev.Type)
	assert.Equal(t, "broken", ev.ProviderName)
	assert.Equal(t, int64(0), sub.OverflowCount(), "filtered events are not overflow")
}

func TestUnsubscribe(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(1)
	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	require.NoError(t, collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventRequest}))
}

func TestReset(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	ctx := context.Background()
	require.NoError(t, collector.RecordEvent(ctx, types.MetricEvent{
		Type:         types.MetricEventSuccess,
		Operation:    types.OperationDetails,
		ProviderName: "static",
	}))

	collector.Reset()

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(0), snapshot.Successful)
	assert.Empty(t, snapshot.ProviderBreakdown)
	assert.True(t, snapshot.FirstRequestTime.IsZero())
}

func TestClose(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(1)

	require.NoError(t, collector.Close())
	require.NoError(t, collector.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)

	err := collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventRequest})
	assert.ErrorIs(t, err, ErrCollectorClosed)

	late := collector.Subscribe(1)
	_, ok = <-late.Events()
	assert.False(t, ok)
}

func TestSubscribeRacingCloseAlwaysEndsClosed(t *testing.T) {
	for round := 0; round < 50; round++ {
		collector := NewDefaultMetricsCollector()

		var wg sync.WaitGroup
		subs := make([]types.MetricsSubscription, 8)
		for i := range subs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				subs[i] = collector.SubscribeTo(1, types.MetricEventRequest)
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = collector.Close()
		}()
		wg.Wait()

		for _, sub := range subs {
			select {
			case _, ok := <-sub.Events():
				assert.False(t, ok, "subscription %s received an event after close", sub.ID())
			case <-time.After(time.Second):
				t.Fatalf("subscription %s was left open after Close", sub.ID())
			}
		}
	}
}

func TestConcurrentRecordEvent(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationDetails})
		}()
	}
	wg.Wait()
	sub.Unsubscribe()

	assert.Equal(t, int64(50), collector.GetSnapshot().TotalDispatches)
}
