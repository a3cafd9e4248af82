// Package metrics provides the default in-memory implementation of types.MetricsCollector.
// It aggregates dispatch outcomes per operation and attempt outcomes per provider, and
// fans events out to subscribers without blocking the dispatcher.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// ErrCollectorClosed is returned by RecordEvent after Close.
var ErrCollectorClosed = errors.New("metrics collector is closed")

// DefaultMetricsCollector is the default implementation of types.MetricsCollector.
type DefaultMetricsCollector struct {
	// Mutex for protecting maps and timestamps
	mu sync.RWMutex

	totalDispatches atomic.Int64
	successful      atomic.Int64
	noResult        atomic.Int64
	noProviders     atomic.Int64
	invalidInput    atomic.Int64

	operations map[types.Operation]*operationMetrics
	providers  map[string]*providerMetrics

	subscriptions map[string]*subscription
	nextSubID     atomic.Int64

	firstRequestTime time.Time
	lastUpdated      time.Time
	closed           atomic.Bool
}

type operationMetrics struct {
	operation  types.Operation
	dispatches atomic.Int64
	successful atomic.Int64
	noResult   atomic.Int64
	fallbacks  atomic.Int64
}

type providerMetrics struct {
	mu sync.Mutex

	name         string
	providerType types.ProviderType

	attempts     int64
	successes    int64
	empty        int64
	failures     int64
	totalLatency time.Duration

	errorsByType  map[string]int64
	operations    map[types.Operation]int64
	lastError     string
	lastErrorTime time.Time
	lastAttempt   time.Time
}

// NewDefaultMetricsCollector creates a new DefaultMetricsCollector instance.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		operations:    make(map[types.Operation]*operationMetrics),
		providers:     make(map[string]*providerMetrics),
		subscriptions: make(map[string]*subscription),
	}
}

// RecordEvent aggregates the event and publishes it to subscribers.
func (c *DefaultMetricsCollector) RecordEvent(ctx context.Context, event types.MetricEvent) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	if c.firstRequestTime.IsZero() {
		c.firstRequestTime = event.Timestamp
	}
	c.lastUpdated = event.Timestamp
	op := c.operationLocked(event.Operation)
	var pm *providerMetrics
	if event.ProviderName != "" {
		pm = c.providerLocked(event.ProviderName, event.ProviderType)
	}
	subs := make([]*subscription, 0, len(c.subscriptions))
	for _, s := range c.subscriptions {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	switch event.Type {
	case types.MetricEventRequest:
		c.totalDispatches.Add(1)
		op.dispatches.Add(1)
	case types.MetricEventSuccess:
		c.successful.Add(1)
		op.successful.Add(1)
		if event.AttemptNumber > 1 {
			op.fallbacks.Add(1)
		}
		if pm != nil {
			pm.recordAttempt(event, func() { pm.successes++ })
		}
	case types.MetricEventProviderEmpty:
		if pm != nil {
			pm.recordAttempt(event, func() { pm.empty++ })
		}
	case types.MetricEventProviderError:
		if pm != nil {
			pm.recordAttempt(event, func() {
				pm.failures++
				pm.errorsByType[event.ErrorType]++
				pm.lastError = event.ErrorMessage
				pm.lastErrorTime = event.Timestamp
			})
		}
	case types.MetricEventNoResult:
		c.noResult.Add(1)
		op.noResult.Add(1)
		if event.ErrorType == types.NoResultNoProviders {
			c.noProviders.Add(1)
		}
	case types.MetricEventInvalidInput:
		c.invalidInput.Add(1)
	}

	for _, s := range subs {
		s.publish(event)
	}
	return nil
}

func (pm *providerMetrics) recordAttempt(event types.MetricEvent, update func()) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.attempts++
	pm.totalLatency += event.Latency
	pm.lastAttempt = event.Timestamp
	if event.Operation != "" {
		pm.operations[event.Operation]++
	}
	update()
}

func (c *DefaultMetricsCollector) operationLocked(op types.Operation) *operationMetrics {
	om, ok := c.operations[op]
	if !ok {
		om = &operationMetrics{operation: op}
		c.operations[op] = om
	}
	return om
}

func (c *DefaultMetricsCollector) providerLocked(name string, providerType types.ProviderType) *providerMetrics {
	pm, ok := c.providers[name]
	if !ok {
		pm = &providerMetrics{
			name:         name,
			providerType: providerType,
			errorsByType: make(map[string]int64),
			operations:   make(map[types.Operation]int64),
		}
		c.providers[name] = pm
	}
	return pm
}

// GetSnapshot returns a complete snapshot of all metrics
func (c *DefaultMetricsCollector) GetSnapshot() types.MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.totalDispatches.Load()
	successful := c.successful.Load()

	snapshot := types.MetricsSnapshot{
		TotalDispatches:    total,
		Successful:         successful,
		NoResult:           c.noResult.Load(),
		NoProviders:        c.noProviders.Load(),
		InvalidInput:       c.invalidInput.Load(),
		SuccessRate:        calculateRate(successful, total),
		OperationBreakdown: make(map[types.Operation]*types.OperationMetricsSnapshot, len(c.operations)),
		ProviderBreakdown:  make(map[string]*types.ProviderMetricsSnapshot, len(c.providers)),
		LastUpdated:        c.lastUpdated,
		FirstRequestTime:   c.firstRequestTime,
	}

	for op, om := range c.operations {
		if op == "" {
			continue
		}
		snapshot.OperationBreakdown[op] = &types.OperationMetricsSnapshot{
			Operation:  op,
			Dispatches: om.dispatches.Load(),
			Successful: om.successful.Load(),
			NoResult:   om.noResult.Load(),
			Fallbacks:  om.fallbacks.Load(),
		}
	}
	for name, pm := range c.providers {
		snapshot.ProviderBreakdown[name] = pm.snapshot()
	}
	return snapshot
}

// GetProviderMetrics returns metrics for a specific provider
func (c *DefaultMetricsCollector) GetProviderMetrics(providerName string) *types.ProviderMetricsSnapshot {
	c.mu.RLock()
	pm, exists := c.providers[providerName]
	c.mu.RUnlock()

	if !exists {
		return nil
	}
	return pm.snapshot()
}

func (pm *providerMetrics) snapshot() *types.ProviderMetricsSnapshot {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	s := &types.ProviderMetricsSnapshot{
		Provider:      pm.name,
		ProviderType:  pm.providerType,
		Attempts:      pm.attempts,
		Successes:     pm.successes,
		Empty:         pm.empty,
		Failures:      pm.failures,
		SuccessRate:   calculateRate(pm.successes, pm.attempts),
		LastError:     pm.lastError,
		LastErrorTime: pm.lastErrorTime,
		LastAttempt:   pm.lastAttempt,
		ErrorsByType:  make(map[string]int64, len(pm.errorsByType)),
		Operations:    make(map[types.Operation]int64, len(pm.operations)),
	}
	if pm.attempts > 0 {
		s.AverageLatency = pm.totalLatency / time.Duration(pm.attempts)
	}
	for k, v := range pm.errorsByType {
		s.ErrorsByType[k] = v
	}
	for k, v := range pm.operations {
		s.Operations[k] = v
	}
	return s
}

// Subscribe creates a new subscription with the given buffer size
func (c *DefaultMetricsCollector) Subscribe(bufferSize int) types.MetricsSubscription {
	return c.SubscribeTo(bufferSize)
}

// SubscribeTo is Subscribe restricted to the given event types; none means all.
// Events of other types are neither delivered nor counted as overflow.
func (c *DefaultMetricsCollector) SubscribeTo(bufferSize int, kinds ...types.MetricEventType) types.MetricsSubscription {
	if bufferSize < 0 {
		bufferSize = 0
	}
	id := fmt.Sprintf("sub-%d", c.nextSubID.Add(1))

	sub := newSubscription(id, bufferSize, c, kinds)

	// Close flips closed before taking mu, so checking under mu cannot miss it.
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		sub.collector = nil
		sub.closed.Store(true)
		sub.close()
		return sub
	}
	c.subscriptions[id] = sub
	c.mu.Unlock()

	return sub
}

func (c *DefaultMetricsCollector) detach(id string) {
	c.mu.Lock()
	delete(c.subscriptions, id)
	c.mu.Unlock()
}

// Reset clears all aggregated metrics. Subscriptions are kept.
func (c *DefaultMetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalDispatches.Store(0)
	c.successful.Store(0)
	c.noResult.Store(0)
	c.noProviders.Store(0)
	c.invalidInput.Store(0)
	c.operations = make(map[types.Operation]*operationMetrics)
	c.providers = make(map[string]*providerMetrics)
	c.firstRequestTime = time.Time{}
	c.lastUpdated = time.Time{}
}

// Close closes all subscriptions. Further events are rejected.
func (c *DefaultMetricsCollector) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = make(map[string]*subscription)
	c.mu.Unlock()

	for _, s := range subs {
		s.closed.Store(true)
		s.close()
	}
	return nil
}

func calculateRate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
