package handlers

import (
	"net/http"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// maxFailureRatio is the share of failed attempts above which a provider is reported degraded
const maxFailureRatio = 0.5

type HealthHandler struct {
	registry  types.Registry
	collector types.MetricsCollector
	gate      featuregate.Gate
	version   string
	startTime time.Time
}

func NewHealthHandler(reg types.Registry, collector types.MetricsCollector, gate featuregate.Gate, version string) *HealthHandler {
	if gate == nil {
		gate = featuregate.Static(true)
	}
	return &HealthHandler{
		registry:  reg,
		collector: collector,
		gate:      gate,
		version:   version,
		startTime: time.Now(),
	}
}

// Status returns simple liveness status
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, r, map[string]string{"status": "ok"})
}

// Health returns detailed health with provider status derived from recent attempts
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	providerHealth := make(map[string]backendtypes.ProviderHealth)

	for _, info := range providerInfos(h.registry) {
		health := backendtypes.ProviderHealth{Status: "unknown"}
		if h.collector != nil {
			if m := h.collector.GetProviderMetrics(info.Name); m != nil && m.Attempts > 0 {
				health.Attempts = m.Attempts
				health.SuccessRate = m.SuccessRate
				health.LastError = m.LastError
				health.Status = "ok"
				if float64(m.Failures)/float64(m.Attempts) > maxFailureRatio {
					health.Status = "degraded"
				}
			}
		}
		providerHealth[info.Name] = health
	}

	status := "healthy"
	if len(providerHealth) == 0 {
		status = "no_providers"
	}

	SendSuccess(w, r, backendtypes.HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Enabled:   h.gate.Enabled(),
		Providers: providerHealth,
	})
}

// Version returns version information
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, r, map[string]string{
		"version": h.version,
	})
}
