// Package http provides the outbound HTTP client used by network-backed address providers.
// It includes a reusable client with default headers and request metrics, plus JSON request helpers.
package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "address-provider-kit/1.0"

// HTTPClient provides a reusable HTTP client with default headers and request metrics.
// Retries are left to the caller so that they can be classified per lookup.
type HTTPClient struct {
	client       *http.Client
	headers      map[string]string
	metrics      *ClientMetrics
	requestCount int64
	successCount int64
	errorCount   int64
	totalLatency int64 // Nanoseconds
	mu           sync.RWMutex
}

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	Timeout   time.Duration     `json:"timeout,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`

	// BaseClient, when set, is used instead of a fresh http.Client. Its Timeout is
	// overwritten by Timeout. This is how token-injecting clients such as the one
	// from oauth2 clientcredentials are plugged in.
	BaseClient *http.Client `json:"-"`
}

// ClientMetrics tracks HTTP client performance
type ClientMetrics struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessfulReqs  int64         `json:"successful_requests"`
	FailedReqs      int64         `json:"failed_requests"`
	AvgLatency      time.Duration `json:"avg_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	StatusCodes     map[int]int64 `json:"status_codes"`
}

// NewHTTPClient creates a new HTTP client with common configurations
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(config.Headers)+1)
	for k, v := range config.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	} else if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = DefaultUserAgent
	}

	base := config.BaseClient
	if base == nil {
		base = &http.Client{}
	}
	client := *base
	client.Timeout = config.Timeout

	return &HTTPClient{
		client:  &client,
		headers: headers,
		metrics: &ClientMetrics{StatusCodes: make(map[int]int64)},
	}
}

// Do sends req once with the default headers filled in and records the outcome.
// Headers already set on req win over the defaults. A cancelled ctx is reported
// as ctx.Err().
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	atomic.AddInt64(&c.requestCount, 1)

	req = req.WithContext(ctx)
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	c.updateMetrics(resp, err, time.Since(startTime))
	return resp, err
}

// updateMetrics updates client metrics after a request
func (c *HTTPClient) updateMetrics(resp *http.Response, err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.LastRequestTime = time.Now()

	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
	} else {
		atomic.AddInt64(&c.successCount, 1)
		if resp != nil {
			c.metrics.StatusCodes[resp.StatusCode]++
		}
	}

	atomic.AddInt64(&c.totalLatency, latency.Nanoseconds())
	if totalReqs := atomic.LoadInt64(&c.requestCount); totalReqs > 0 {
		c.metrics.AvgLatency = time.Duration(atomic.LoadInt64(&c.totalLatency) / totalReqs)
	}
}

// GetMetrics returns current client metrics
func (c *HTTPClient) GetMetrics() ClientMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := *c.metrics
	metrics.StatusCodes = make(map[int]int64, len(c.metrics.StatusCodes))
	for k, v := range c.metrics.StatusCodes {
		metrics.StatusCodes[k] = v
	}
	metrics.TotalRequests = atomic.LoadInt64(&c.requestCount)
	metrics.SuccessfulReqs = atomic.LoadInt64(&c.successCount)
	metrics.FailedReqs = atomic.LoadInt64(&c.errorCount)

	return metrics
}

// HTTPClientBuilder provides a builder pattern for HTTPClient
type HTTPClientBuilder struct {
	config HTTPClientConfig
}

// NewHTTPClientBuilder creates a new builder
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{}
}

// WithTimeout sets the timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithHeaders adds default headers
func (b *HTTPClientBuilder) WithHeaders(headers map[string]string) *HTTPClientBuilder {
	if b.config.Headers == nil {
		b.config.Headers = make(map[string]string)
	}
	for k, v := range headers {
		b.config.Headers[k] = v
	}
	return b
}

// WithUserAgent sets the user agent
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithBaseClient sets the underlying http.Client
func (b *HTTPClientBuilder) WithBaseClient(client *http.Client) *HTTPClientBuilder {
	b.config.BaseClient = client
	return b
}

// Build creates the HTTP client
func (b *HTTPClientBuilder) Build() *HTTPClient {
	return NewHTTPClient(b.config)
}

// drain discards the rest of a body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
