package middleware

import (
	"net/http"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Logging writes one line per request: request ID, method, path, status, size and duration.
// Server errors are logged at warn level.
func Logging(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			requestID := GetRequestID(r.Context())
			if requestID == "" {
				requestID = w.Header().Get(RequestIDHeader)
			}

			logf := logger.Infof
			if wrapped.statusCode >= http.StatusInternalServerError {
				logf = logger.Warnf
			}
			logf("[%s] %s %s %d %d %v",
				requestID,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				wrapped.size,
				time.Since(start),
			)
		})
	}
}
