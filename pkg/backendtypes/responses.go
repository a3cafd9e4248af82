package backendtypes

import (
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// APIResponse is the standard response wrapper
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes used in APIError.Code
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// FormatResponse carries a formatted address
type FormatResponse struct {
	Address string `json:"address"`
}

// ProviderInfo for provider listing
type ProviderInfo struct {
	Name         string             `json:"name"`
	Type         types.ProviderType `json:"type"`
	Priority     int                `json:"priority"`
	Description  string             `json:"description,omitempty"`
	Capabilities []types.Operation  `json:"capabilities"`
	Status       interface{}        `json:"status,omitempty"`
}

// GateResponse reports the feature gate state
type GateResponse struct {
	Enabled bool `json:"enabled"`
}

// HealthResponse for health endpoints
type HealthResponse struct {
	Status    string                    `json:"status"`
	Version   string                    `json:"version"`
	Uptime    string                    `json:"uptime"`
	Enabled   bool                      `json:"enabled"`
	Providers map[string]ProviderHealth `json:"providers,omitempty"`
}

// ProviderHealth summarises recent attempts against one provider
type ProviderHealth struct {
	Status      string  `json:"status"` // ok, degraded, unknown
	Attempts    int64   `json:"attempts"`
	SuccessRate float64 `json:"success_rate"`
	LastError   string  `json:"last_error,omitempty"`
}
