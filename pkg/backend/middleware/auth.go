package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
)

// APIKeyHeader is accepted as an alternative to a bearer token
const APIKeyHeader = "X-API-Key"

type AuthConfig struct {
	Enabled     bool
	APIPassword string
	APIKeyEnv   string
	PublicPaths []string
}

// Auth rejects requests without the configured API key. Public paths, CORS preflights and
// a configuration with no key at all pass through.
func Auth(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			for _, path := range config.PublicPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			expectedKey := config.APIPassword
			if expectedKey == "" && config.APIKeyEnv != "" {
				expectedKey = os.Getenv(config.APIKeyEnv)
			}
			if expectedKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(APIKeyHeader)
			if token == "" {
				token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedKey)) != 1 {
				writeError(w, r, backendtypes.ErrCodeUnauthorized, "Invalid or missing API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
