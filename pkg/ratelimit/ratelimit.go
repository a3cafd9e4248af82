// Package ratelimit tracks the request quota a server advertises in its response headers
// and writes the same headers on the serving side.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Response headers describing the caller's quota
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset" // seconds until the window resets
	HeaderRetryAfter = "Retry-After"
)

// epochThreshold separates absolute Unix timestamps from relative seconds in HeaderReset
const epochThreshold = 1_000_000_000

// Info is the quota state reported by one response
type Info struct {
	// Timestamp is when this rate limit information was captured
	Timestamp time.Time `json:"timestamp"`

	// RequestsLimit is the maximum number of requests allowed in the current window
	RequestsLimit int `json:"requests_limit"`

	// RequestsRemaining is the number of requests remaining in the current window.
	// -1 means the header was absent.
	RequestsRemaining int `json:"requests_remaining"`

	// RequestsReset is when the request limit counter will reset
	RequestsReset time.Time `json:"requests_reset"`

	// RetryAfter indicates how long to wait before retrying (from Retry-After header)
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// ParseHeaders extracts quota information from h. It reports false when none of the
// rate limit headers are present.
func ParseHeaders(h http.Header, now time.Time) (*Info, bool) {
	info := &Info{Timestamp: now, RequestsRemaining: -1}
	found := false

	if v, ok := intHeader(h, HeaderLimit); ok {
		info.RequestsLimit = v
		found = true
	}
	if v, ok := intHeader(h, HeaderRemaining); ok {
		info.RequestsRemaining = v
		found = true
	}
	if v, ok := intHeader(h, HeaderReset); ok {
		if v >= epochThreshold {
			info.RequestsReset = time.Unix(int64(v), 0)
		} else {
			info.RequestsReset = now.Add(time.Duration(v) * time.Second)
		}
		found = true
	}
	if raw := strings.TrimSpace(h.Get(HeaderRetryAfter)); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			info.RetryAfter = time.Duration(secs) * time.Second
			found = true
		} else if at, err := http.ParseTime(raw); err == nil && at.After(now) {
			info.RetryAfter = at.Sub(now)
			found = true
		}
	}

	return info, found
}

func intHeader(h http.Header, name string) (int, bool) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// WriteHeaders sets the quota headers on a response. reset is rounded up to whole seconds.
func WriteHeaders(h http.Header, limit, remaining int, reset time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	h.Set(HeaderLimit, strconv.Itoa(limit))
	h.Set(HeaderRemaining, strconv.Itoa(remaining))
	h.Set(HeaderReset, strconv.Itoa(Seconds(reset)))
}

// Seconds rounds d up to whole seconds, with a floor of zero
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Tracker keeps the latest quota reported by one upstream server.
// A nil Tracker never blocks requests.
type Tracker struct {
	mu   sync.RWMutex
	info *Info
	now  func() time.Time
}

// NewTracker creates a new Tracker instance for tracking rate limits.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Update replaces the tracked state. Nil is ignored.
func (t *Tracker) Update(info *Info) {
	if t == nil || info == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info = info
}

// Get returns a copy of the tracked state
func (t *Tracker) Get() (*Info, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.info == nil {
		return nil, false
	}
	c := *t.info
	return &c, true
}

// CanMakeRequest reports whether the upstream is expected to accept a request now
func (t *Tracker) CanMakeRequest() bool {
	return t.GetWaitTime() == 0
}

// GetWaitTime returns how long to wait before the next request, or 0.
// A pending Retry-After wins; otherwise an exhausted window waits for its reset.
func (t *Tracker) GetWaitTime() time.Duration {
	info, ok := t.Get()
	if !ok {
		return 0
	}
	now := t.now()

	if info.RetryAfter > 0 {
		if wait := info.Timestamp.Add(info.RetryAfter).Sub(now); wait > 0 {
			return wait
		}
		return 0
	}
	if info.RequestsRemaining == 0 && now.Before(info.RequestsReset) {
		return info.RequestsReset.Sub(now)
	}
	return 0
}

// ShouldThrottle reports whether more than threshold (0..1) of the window has been used.
// Out-of-range thresholds default to 0.8.
func (t *Tracker) ShouldThrottle(threshold float64) bool {
	if threshold < 0 || threshold > 1 {
		threshold = 0.8
	}
	info, ok := t.Get()
	if !ok || info.RequestsLimit <= 0 || info.RequestsRemaining < 0 {
		return false
	}
	if !info.RequestsReset.IsZero() && !t.now().Before(info.RequestsReset) {
		return false
	}
	used := float64(info.RequestsLimit-info.RequestsRemaining) / float64(info.RequestsLimit)
	return used >= threshold
}
