package types

import "time"

// MetricsSnapshot is a point-in-time copy of all aggregate metrics.
type MetricsSnapshot struct {
	TotalDispatches int64   `json:"total_dispatches"`
	Successful      int64   `json:"successful"`
	NoResult        int64   `json:"no_result"`
	NoProviders     int64   `json:"no_providers"`
	InvalidInput    int64   `json:"invalid_input"`
	SuccessRate     float64 `json:"success_rate"` // successful/total

	OperationBreakdown map[Operation]*OperationMetricsSnapshot `json:"operation_breakdown"`
	ProviderBreakdown  map[string]*ProviderMetricsSnapshot     `json:"provider_breakdown"`

	LastUpdated      time.Time `json:"last_updated"`
	FirstRequestTime time.Time `json:"first_request_time"`
}

// OperationMetricsSnapshot holds per-operation dispatch counters.
type OperationMetricsSnapshot struct {
	Operation  Operation `json:"operation"`
	Dispatches int64     `json:"dispatches"`
	Successful int64     `json:"successful"`
	NoResult   int64     `json:"no_result"`
	Fallbacks  int64     `json:"fallbacks"` // successes served by a non-first provider
}

// ProviderMetricsSnapshot holds per-provider attempt counters.
type ProviderMetricsSnapshot struct {
	Provider     string       `json:"provider"`
	ProviderType ProviderType `json:"provider_type"`

	Attempts    int64   `json:"attempts"`
	Successes   int64   `json:"successes"`
	Empty       int64   `json:"empty"`
	Failures    int64   `json:"failures"`
	SuccessRate float64 `json:"success_rate"` // successes/attempts

	AverageLatency time.Duration       `json:"average_latency"`
	ErrorsByType   map[string]int64    `json:"errors_by_type,omitempty"`
	LastError      string              `json:"last_error,omitempty"`
	LastErrorTime  time.Time           `json:"last_error_time,omitempty"`
	LastAttempt    time.Time           `json:"last_attempt"`
	Operations     map[Operation]int64 `json:"operations"`
}
