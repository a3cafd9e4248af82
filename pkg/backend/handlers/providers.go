package handlers

import (
	"net/http"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// ProviderHandler lists registered providers
type ProviderHandler struct {
	registry types.Registry
}

func NewProviderHandler(reg types.Registry) *ProviderHandler {
	return &ProviderHandler{registry: reg}
}

// ListProviders handles GET /api/providers. Providers are listed in consultation order.
// Providers that report a transport status, such as remote ones, include it.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	SendSuccess(w, r, providerInfos(h.registry))
}

func providerInfos(reg types.Registry) []backendtypes.ProviderInfo {
	infos := []backendtypes.ProviderInfo{}
	if reg == nil {
		return infos
	}
	for _, entry := range registry.Ordered(reg.Registrations()) {
		infos = append(infos, backendtypes.ProviderInfo{
			Name:         entry.Provider.Name(),
			Type:         entry.Provider.Type(),
			Priority:     entry.Priority,
			Description:  entry.Provider.Description(),
			Capabilities: types.Capabilities(entry.Provider),
			Status:       types.StatusOf(entry.Provider),
		})
	}
	return infos
}
