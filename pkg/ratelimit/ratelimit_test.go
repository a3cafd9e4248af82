package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func trackerAt(now *time.Time) *Tracker {
	t := NewTracker()
	t.now = func() time.Time { return *now }
	return t
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		found   bool
		check   func(t *testing.T, info *Info)
	}{
		{
			name:    "no headers",
			headers: http.Header{},
			found:   false,
		},
		{
			name: "relative reset",
			headers: http.Header{
				HeaderLimit:     {"100"},
				HeaderRemaining: {"7"},
				HeaderReset:     {"30"},
			},
			found: true,
			check: func(t *testing.T, info *Info) {
				assert.Equal(t, 100, info.RequestsLimit)
				assert.Equal(t, 7, info.RequestsRemaining)
				assert.Equal(t, base.Add(30*time.Second), info.RequestsReset)
			},
		},
		{
			name:    "epoch reset",
			headers: http.Header{HeaderReset: {"1740830460"}},
			found:   true,
			check: func(t *testing.T, info *Info) {
				assert.Equal(t, int64(1740830460), info.RequestsReset.Unix())
				assert.Equal(t, -1, info.RequestsRemaining)
			},
		},
		{
			name:    "retry after seconds",
			headers: http.Header{HeaderRetryAfter: {"5"}},
			found:   true,
			check: func(t *testing.T, info *Info) {
				assert.Equal(t, 5*time.Second, info.RetryAfter)
			},
		},
		{
			name:    "retry after date",
			headers: http.Header{HeaderRetryAfter: {base.Add(10 * time.Second).Format(http.TimeFormat)}},
			found:   true,
			check: func(t *testing.T, info *Info) {
				assert.Equal(t, 10*time.Second, info.RetryAfter)
			},
		},
		{
			name:    "garbage is ignored",
			headers: http.Header{HeaderLimit: {"lots"}, HeaderRetryAfter: {"soon"}},
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, found := ParseHeaders(tt.headers, base)
			assert.Equal(t, tt.found, found)
			if tt.check != nil {
				tt.check(t, info)
			}
		})
	}
}

func TestWriteHeaders(t *testing.T) {
	h := http.Header{}
	WriteHeaders(h, 10, -3, 1500*time.Millisecond)

	assert.Equal(t, "10", h.Get(HeaderLimit))
	assert.Equal(t, "0", h.Get(HeaderRemaining))
	assert.Equal(t, "2", h.Get(HeaderReset))

	info, ok := ParseHeaders(h, base)
	require.True(t, ok)
	assert.Equal(t, 0, info.RequestsRemaining)
}

func TestTracker_ExhaustedWindow(t *testing.T) {
	now := base
	tr := trackerAt(&now)
	assert.True(t, tr.CanMakeRequest())

	tr.Update(&Info{Timestamp: now, RequestsLimit: 10, RequestsRemaining: 0, RequestsReset: now.Add(20 * time.Second)})
	assert.False(t, tr.CanMakeRequest())
	assert.Equal(t, 20*time.Second, tr.GetWaitTime())

	now = now.Add(21 * time.Second)
	assert.True(t, tr.CanMakeRequest())
}

func TestTracker_RetryAfter(t *testing.T) {
	now := base
	tr := trackerAt(&now)
	tr.Update(&Info{Timestamp: now, RequestsRemaining: -1, RetryAfter: 3 * time.Second})

	assert.Equal(t, 3*time.Second, tr.GetWaitTime())
	now = now.Add(2 * time.Second)
	assert.Equal(t, time.Second, tr.GetWaitTime())
	now = now.Add(2 * time.Second)
	assert.True(t, tr.CanMakeRequest())
}

func TestTracker_ShouldThrottle(t *testing.T) {
	now := base
	tr := trackerAt(&now)
	assert.False(t, tr.ShouldThrottle(0.5))

	tr.Update(&Info{Timestamp: now, RequestsLimit: 10, RequestsRemaining: 1, RequestsReset: now.Add(time.Minute)})
	assert.True(t, tr.ShouldThrottle(0.8))
	assert.False(t, tr.ShouldThrottle(0.95))
	assert.True(t, tr.ShouldThrottle(7), "out-of-range threshold falls back to 0.8")

	now = now.Add(2 * time.Minute)
	assert.False(t, tr.ShouldThrottle(0.8), "window has reset")
}

func TestTracker_Nil(t *testing.T) {
	var tr *Tracker
	tr.Update(&Info{})
	_, ok := tr.Get()
	assert.False(t, ok)
	assert.True(t, tr.CanMakeRequest())
	assert.False(t, tr.ShouldThrottle(0.5))
}
