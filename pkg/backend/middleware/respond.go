package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
)

func writeError(w http.ResponseWriter, r *http.Request, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(backendtypes.APIResponse{
		Success:   false,
		Error:     &backendtypes.APIError{Code: code, Message: message},
		RequestID: GetRequestID(r.Context()),
		Timestamp: time.Now(),
	})
}
