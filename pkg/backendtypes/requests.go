package backendtypes

import "github.com/cecil-the-coder/address-provider-kit/pkg/types"

// ExtendedDetailsRequest is the body of POST /api/v1/address/details/extended.
// It is the selected suggestion itself.
type ExtendedDetailsRequest = types.AddressData

// GateRequest switches the normalizer feature gate
type GateRequest struct {
	Enabled *bool `json:"enabled"`
}
