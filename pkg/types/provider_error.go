package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	ErrCodeUnknown         ErrorCode = "unknown"
	ErrCodeAuthentication  ErrorCode = "authentication"
	ErrCodeRateLimit       ErrorCode = "rate_limit"
	ErrCodeInvalidRequest  ErrorCode = "invalid_request"
	ErrCodeNotFound        ErrorCode = "not_found"
	ErrCodeServerError     ErrorCode = "server_error"
	ErrCodeTimeout         ErrorCode = "timeout"
	ErrCodeNetwork         ErrorCode = "network"
	ErrCodeInvalidResponse ErrorCode = "invalid_response"
	ErrCodePanic           ErrorCode = "panic"
)

// ProviderError represents a standardized error from a provider
type ProviderError struct {
	Code        ErrorCode    // Categorized error code
	Message     string       // Human-readable message
	StatusCode  int          // HTTP status code (0 if not applicable)
	Provider    string       // Name of the provider that generated this error
	Type        ProviderType // Kind of provider
	Operation   Operation    // Which lookup failed
	OriginalErr error        // Wrapped original error
	RetryAfter  int          // Seconds to wait before retry (for rate limits)
	RequestID   string       // Upstream request ID if available
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns true if the error is potentially recoverable with retry
func (e *ProviderError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeServerError, ErrCodeTimeout, ErrCodeNetwork:
		return true
	}
	return false
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation Operation) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// WithRequestID sets the request ID field and returns the error for chaining
func (e *ProviderError) WithRequestID(requestID string) *ProviderError {
	e.RequestID = requestID
	return e
}

// WithRetryAfter sets the retry after field and returns the error for chaining
func (e *ProviderError) WithRetryAfter(retryAfter int) *ProviderError {
	e.RetryAfter = retryAfter
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(provider string, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeAuthentication, message)
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(provider string, retryAfter int) *ProviderError {
	return &ProviderError{
		Code:       ErrCodeRateLimit,
		Message:    "rate limit exceeded",
		Provider:   provider,
		RetryAfter: retryAfter,
	}
}

// NewServerError creates a new server error
func NewServerError(provider string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Code:       ErrCodeServerError,
		Message:    message,
		Provider:   provider,
		StatusCode: statusCode,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(provider string, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeNetwork, message)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(provider string, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeTimeout, message)
}

// NewInvalidResponseError creates an error for payloads that could not be decoded
func NewInvalidResponseError(provider string, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeInvalidResponse, message)
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrCodeTimeout
	default:
		if statusCode >= 500 {
			return ErrCodeServerError
		}
		return ErrCodeUnknown
	}
}

// AsProviderError converts any error into a *ProviderError attributed to provider.
// Context errors are classified as timeouts; existing ProviderErrors are returned as is.
func AsProviderError(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Provider == "" {
			pe.Provider = provider
		}
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTimeoutError(provider, err.Error()).WithOriginalErr(err)
	}
	return NewProviderError(provider, ErrCodeUnknown, err.Error()).WithOriginalErr(err)
}

// ErrorCodeOf returns the ErrorCode carried by err, or ErrCodeUnknown.
func ErrorCodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}
