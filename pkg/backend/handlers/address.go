package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// AddressService is the normalization surface served over HTTP
type AddressService interface {
	FormatAddress(ctx context.Context, raw string) string
	FormatSuggestions(ctx context.Context, raw string, count int) []string
	LookupDetails(ctx context.Context, raw string) *types.AddressData
	LookupExtendedDetails(ctx context.Context, selected *types.AddressData) *types.AddressData
	SuggestByText(ctx context.Context, raw string, count int) []types.AddressData
	SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) []types.AddressData
}

// AddressHandler serves the /api/v1/address endpoints
type AddressHandler struct {
	service AddressService
	limits  backendtypes.SuggestionsConfig
}

// NewAddressHandler serves service. Suggestion counts are defaulted and capped by limits.
func NewAddressHandler(service AddressService, limits backendtypes.SuggestionsConfig) *AddressHandler {
	return &AddressHandler{service: service, limits: limits}
}

// Format handles GET /api/v1/address/format?q=
func (h *AddressHandler) Format(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	SendSuccess(w, r, backendtypes.FormatResponse{
		Address: h.service.FormatAddress(r.Context(), r.URL.Query().Get("q")),
	})
}

// Details handles GET /api/v1/address/details?q=
func (h *AddressHandler) Details(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	SendSuccess(w, r, h.service.LookupDetails(r.Context(), r.URL.Query().Get("q")))
}

// ExtendedDetails handles POST /api/v1/address/details/extended with the selected
// suggestion as body. A JSON null body is passed through as "no selection".
func (h *AddressHandler) ExtendedDetails(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var selected *types.AddressData
	if err := ParseJSON(r, &selected); err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	SendSuccess(w, r, h.service.LookupExtendedDetails(r.Context(), selected))
}

// Suggestions handles GET /api/v1/address/suggestions?q=&count=
func (h *AddressHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	count, err := h.parseCount(r)
	if err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	SendSuccess(w, r, h.service.SuggestByText(r.Context(), r.URL.Query().Get("q"), count))
}

// FormattedSuggestions handles GET /api/v1/address/suggestions/formatted?q=&count=
func (h *AddressHandler) FormattedSuggestions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	count, err := h.parseCount(r)
	if err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	SendSuccess(w, r, h.service.FormatSuggestions(r.Context(), r.URL.Query().Get("q"), count))
}

// GeoSuggestions handles GET /api/v1/address/suggestions/geo?lat=&lon=&count=
func (h *AddressHandler) GeoSuggestions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	lat, err := parseCoordinate(r, "lat", 90)
	if err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	lon, err := parseCoordinate(r, "lon", 180)
	if err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	count, err := h.parseCount(r)
	if err != nil {
		SendInvalidRequest(w, r, err.Error())
		return
	}
	SendSuccess(w, r, h.service.SuggestByCoordinates(r.Context(), lat, lon, count))
}

// parseCount applies the configured default to an absent or non-positive count and
// caps it at the configured maximum
func (h *AddressHandler) parseCount(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return h.limits.Normalize(0), nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("count must be an integer, got %q", raw)
	}
	return h.limits.Normalize(count), nil
}

func parseCoordinate(r *http.Request, name string, limit float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s must be within [%g, %g], got %g", name, -limit, limit, v)
	}
	return v, nil
}
