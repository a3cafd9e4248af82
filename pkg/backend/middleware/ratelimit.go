package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/ratelimit"
)

// idleClientTTL is how long a client's limiter survives without requests
const idleClientTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per client
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
// A burst below one is raised to the ceiling of rps.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = max(1, int(rps+0.999))
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// reserve takes a token for key. It returns zero when the request may proceed now,
// otherwise how long the client has to wait. Denied requests do not consume tokens.
func (rl *RateLimiter) reserve(key string) (time.Duration, float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Second, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, 0
	}
	return 0, c.limiter.TokensAt(now)
}

// sweep drops idle clients, at most once per TTL
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < idleClientTTL {
		return
	}
	rl.lastSweep = now
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= idleClientTTL {
			delete(rl.clients, key)
		}
	}
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimit rejects clients that exceed their budget with 429 and a Retry-After header.
// Allowed responses carry the remaining budget in X-RateLimit-* headers.
// CORS preflights are not counted.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl == nil || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			wait, tokens := rl.reserve(clientKey(r))
			if wait > 0 {
				ratelimit.WriteHeaders(w.Header(), rl.burst, 0, wait)
				w.Header().Set(ratelimit.HeaderRetryAfter, strconv.Itoa(ratelimit.Seconds(wait)))
				writeError(w, r, backendtypes.ErrCodeRateLimited, "Too many requests", http.StatusTooManyRequests)
				return
			}

			refill := time.Duration(0)
			if rl.rate > 0 && tokens < float64(rl.burst) {
				refill = time.Duration((float64(rl.burst) - tokens) / float64(rl.rate) * float64(time.Second))
			}
			ratelimit.WriteHeaders(w.Header(), rl.burst, int(tokens), refill)
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by API key, then bearer token, then remote host
func clientKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return "key:" + key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return "key:" + strings.TrimPrefix(auth, "Bearer ")
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
