package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backend/middleware"
	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// SendSuccess sends a successful JSON response with data
func SendSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(backendtypes.APIResponse{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now(),
	})
}

// SendError sends an error JSON response with APIError
func SendError(w http.ResponseWriter, r *http.Request, code string, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(backendtypes.APIResponse{
		Success: false,
		Error: &backendtypes.APIError{
			Code:    code,
			Message: message,
		},
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now(),
	})
}

// SendInvalidRequest sends a 400 INVALID_REQUEST error
func SendInvalidRequest(w http.ResponseWriter, r *http.Request, message string) {
	SendError(w, r, backendtypes.ErrCodeInvalidRequest, message, http.StatusBadRequest)
}

// RequireMethod answers 405 and returns false unless r uses one of methods
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	SendError(w, r, backendtypes.ErrCodeMethodNotAllowed,
		fmt.Sprintf("Only %s allowed", strings.Join(methods, ", ")),
		http.StatusMethodNotAllowed)
	return false
}

// ParseJSON parses JSON from request body into target
func ParseJSON(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
