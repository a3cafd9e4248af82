package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Errorf("[%s] PANIC: %v\n%s", GetRequestID(r.Context()), err, debug.Stack())
					writeError(w, r, backendtypes.ErrCodeInternal, "An internal error occurred", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
