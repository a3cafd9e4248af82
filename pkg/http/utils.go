package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// NewJSONRequest creates a JSON HTTP request with proper headers
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// ErrorResponse is the error part of the address-kit response envelope
type ErrorResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// APIError represents a non-200 upstream response
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
	RawBody    string
	Timestamp  time.Time
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ToProviderError classifies the API error by status code.
func (e *APIError) ToProviderError(provider string) *types.ProviderError {
	return types.NewProviderError(provider, types.ClassifyHTTPError(e.StatusCode), e.Message).
		WithStatusCode(e.StatusCode).
		WithRequestID(e.RequestID).
		WithOriginalErr(e)
}

// ProcessResponse reads the body and turns non-200 responses into an *APIError
func ProcessResponse(resp *http.Response) ([]byte, error) {
	defer drain(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ParseAPIError(resp.StatusCode, string(body))
	}

	return body, nil
}

// ProcessJSONResponse processes an HTTP response and unmarshals JSON
func ProcessJSONResponse(resp *http.Response, target interface{}) error {
	body, err := ProcessResponse(resp)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}

// ParseAPIError creates a standardized API error from response
func ParseAPIError(statusCode int, body string) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RawBody:    body,
		Timestamp:  time.Now(),
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal([]byte(body), &errorResp); err == nil && errorResp.Error != nil {
		apiErr.Message = errorResp.Error.Message
		apiErr.Code = errorResp.Error.Code
		apiErr.RequestID = errorResp.RequestID
	} else {
		apiErr.Message = strings.TrimSpace(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

// AuthHeaders creates authentication headers for different methods
func AuthHeaders(method, token string) map[string]string {
	switch method {
	case "bearer":
		return map[string]string{"Authorization": "Bearer " + token}
	case "api-key":
		return map[string]string{"X-API-Key": token}
	default:
		return map[string]string{"Authorization": token}
	}
}
