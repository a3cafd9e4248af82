package handlers

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// MetricsHandler handles metrics endpoints
type MetricsHandler struct {
	collector types.MetricsCollector
	startTime time.Time
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector types.MetricsCollector) *MetricsHandler {
	return &MetricsHandler{
		collector: collector,
		startTime: time.Now(),
	}
}

// SystemMetricsResponse represents system-level metrics
type SystemMetricsResponse struct {
	Uptime          string    `json:"uptime"`
	Goroutines      int       `json:"goroutines"`
	MemoryAllocated uint64    `json:"memory_allocated_bytes"`
	MemorySys       uint64    `json:"memory_sys_bytes"`
	NumGC           uint32    `json:"num_gc"`
	Timestamp       time.Time `json:"timestamp"`
}

// GetMetrics handles GET /api/metrics
// Returns the dispatch metrics snapshot
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if h.collector == nil {
		SendError(w, r, backendtypes.ErrCodeNotFound, "metrics are not collected", http.StatusNotFound)
		return
	}
	SendSuccess(w, r, h.collector.GetSnapshot())
}

// GetProviderMetrics handles GET /api/metrics/providers/{name}
func (h *MetricsHandler) GetProviderMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/metrics/providers/")
	var snapshot *types.ProviderMetricsSnapshot
	if h.collector != nil && name != "" {
		snapshot = h.collector.GetProviderMetrics(name)
	}
	if snapshot == nil {
		SendError(w, r, backendtypes.ErrCodeNotFound, "no metrics for provider "+name, http.StatusNotFound)
		return
	}
	SendSuccess(w, r, snapshot)
}

// GetSystemMetrics handles GET /api/metrics/system
// Returns system-level metrics including runtime stats
func (h *MetricsHandler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SendSuccess(w, r, SystemMetricsResponse{
		Uptime:          time.Since(h.startTime).String(),
		Goroutines:      runtime.NumGoroutine(),
		MemoryAllocated: m.Alloc,
		MemorySys:       m.Sys,
		NumGC:           m.NumGC,
		Timestamp:       time.Now(),
	})
}
