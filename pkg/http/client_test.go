package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_SendsOnceAndRecordsStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClientBuilder().WithTimeout(time.Second).Build()
	resp, err := client.Do(context.Background(), mustRequest(t, server.URL))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	metrics := client.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.SuccessfulReqs)
	assert.Equal(t, int64(1), metrics.StatusCodes[http.StatusServiceUnavailable])
	assert.False(t, metrics.LastRequestTime.IsZero())
}

func TestHTTPClient_DefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kit-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "v1", r.Header.Get("X-Version"))
		assert.Equal(t, "mine", r.Header.Get("X-Tenant"), "request headers win")
		_, _ = io.WriteString(w, "{}")
	}))
	defer server.Close()

	client := NewHTTPClientBuilder().
		WithUserAgent("kit-test").
		WithHeaders(map[string]string{"x-version": "v1", "X-Tenant": "default"}).
		Build()

	req := mustRequest(t, server.URL)
	req.Header.Set("X-Tenant", "mine")
	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestHTTPClient_DefaultUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := NewHTTPClient(HTTPClientConfig{}).Do(context.Background(), mustRequest(t, server.URL))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, DefaultUserAgent, agent)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(HTTPClientConfig{Timeout: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, mustRequest(t, server.URL))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	metrics := client.GetMetrics()
	assert.Equal(t, int64(1), metrics.FailedReqs)
	assert.Empty(t, metrics.StatusCodes)
}

func TestHTTPClient_MetricsAreCopies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{})
	resp, err := client.Do(context.Background(), mustRequest(t, server.URL))
	require.NoError(t, err)
	_ = resp.Body.Close()

	snapshot := client.GetMetrics()
	snapshot.StatusCodes[http.StatusOK] = 99
	assert.Equal(t, int64(1), client.GetMetrics().StatusCodes[http.StatusOK])
}

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}
