package types

import (
	"context"
	"time"
)

// MetricsCollector collects and aggregates dispatch and provider metrics.
// It supports polling (GetSnapshot) and streaming (Subscribe) consumption.
//
// Thread-safety: All methods are safe for concurrent use by multiple goroutines.
type MetricsCollector interface {
	// GetSnapshot returns a point-in-time copy of all metrics.
	GetSnapshot() MetricsSnapshot

	// GetProviderMetrics returns metrics for a provider, or nil if it has not been seen.
	GetProviderMetrics(providerName string) *ProviderMetricsSnapshot

	// Subscribe returns a subscription that receives every event recorded after the call.
	// Events are dropped (and counted) when the buffer is full.
	Subscribe(bufferSize int) MetricsSubscription

	// RecordEvent records a single event.
	RecordEvent(ctx context.Context, event MetricEvent) error

	// Reset clears all aggregated metrics. Subscriptions are kept.
	Reset()

	// Close releases resources and closes all subscriptions.
	Close() error
}

// MetricsSubscription delivers events to a single consumer.
type MetricsSubscription interface {
	// Events returns the channel for receiving events. It is closed on Unsubscribe or Close.
	Events() <-chan MetricEvent

	// Unsubscribe stops delivery. Safe to call multiple times.
	Unsubscribe()

	// ID returns a unique identifier for this subscription.
	ID() string

	// OverflowCount returns the number of events dropped due to a full buffer.
	OverflowCount() int64
}

// MetricEvent represents a single metrics event.
// Events are immutable after creation.
type MetricEvent struct {
	Type MetricEventType `json:"type"`

	// DispatchID correlates all events of one dispatcher call.
	DispatchID string    `json:"dispatch_id,omitempty"`
	Operation  Operation `json:"operation"`

	// Provider identification (empty for dispatch-level events)
	ProviderName string       `json:"provider_name,omitempty"`
	ProviderType ProviderType `json:"provider_type,omitempty"`

	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency,omitempty"`

	// Error details (only for error events)
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Fallback context
	FromProvider  string `json:"from_provider,omitempty"`
	ToProvider    string `json:"to_provider,omitempty"`
	AttemptNumber int    `json:"attempt_number,omitempty"`
	ResultCount   int    `json:"result_count,omitempty"`
}

// MetricEventType categorizes different types of metrics events.
type MetricEventType string

const (
	// MetricEventRequest indicates a dispatch was initiated
	MetricEventRequest MetricEventType = "request"

	// MetricEventSuccess indicates a usable result was returned
	MetricEventSuccess MetricEventType = "success"

	// MetricEventProviderError indicates a single provider attempt failed
	MetricEventProviderError MetricEventType = "provider_error"

	// MetricEventProviderEmpty indicates a provider answered without a usable result
	MetricEventProviderEmpty MetricEventType = "provider_empty"

	// MetricEventProviderSwitch indicates the result came from a provider other than the first
	MetricEventProviderSwitch MetricEventType = "provider_switch"

	// MetricEventNoResult indicates the dispatch ended with the neutral value
	MetricEventNoResult MetricEventType = "no_result"

	// MetricEventInvalidInput indicates the dispatch was short-circuited on its input
	MetricEventInvalidInput MetricEventType = "invalid_input"
)

// Error types carried by MetricEventNoResult.
const (
	NoResultNoProviders = "no_providers"
	NoResultNoMatch     = "no_match"
)

// String returns the string representation of the event type.
func (t MetricEventType) String() string {
	return string(t)
}

// IsError returns true if this event type represents an error condition.
func (t MetricEventType) IsError() bool {
	return t == MetricEventProviderError
}
