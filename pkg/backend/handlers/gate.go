package handlers

import (
	"net/http"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
)

// GateHandler reads and switches the normalizer feature gate
type GateHandler struct {
	gate   *featuregate.Toggle
	logger *logging.Logger
}

func NewGateHandler(gate *featuregate.Toggle, logger *logging.Logger) *GateHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &GateHandler{gate: gate, logger: logger}
}

// Gate handles GET and PUT /api/gate
func (h *GateHandler) Gate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut) {
		return
	}

	if r.Method == http.MethodPut {
		var req backendtypes.GateRequest
		if err := ParseJSON(r, &req); err != nil {
			SendInvalidRequest(w, r, err.Error())
			return
		}
		if req.Enabled == nil {
			SendInvalidRequest(w, r, "enabled is required")
			return
		}
		if previous := h.gate.Set(*req.Enabled); previous != *req.Enabled {
			h.logger.Infof("[gate] address normalization switched %s", onOff(*req.Enabled))
		}
	}

	SendSuccess(w, r, backendtypes.GateResponse{Enabled: h.gate.Enabled()})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
