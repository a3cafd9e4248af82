package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/address-provider-kit/internal/testutil"
	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/metrics"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// fakeService records the arguments of the last call and answers with canned values
type fakeService struct {
	raw      string
	selected *types.AddressData
	count    int
	lat, lon float64
	calls    int

	details     *types.AddressData
	suggestions []types.AddressData
}

func (f *fakeService) FormatAddress(_ context.Context, raw string) string {
	f.calls++
	f.raw = raw
	return strings.ToUpper(raw)
}

func (f *fakeService) FormatSuggestions(_ context.Context, raw string, count int) []string {
	f.calls++
	f.raw, f.count = raw, count
	out := []string{}
	for _, s := range f.suggestions {
		out = append(out, s.Address)
	}
	return out
}

func (f *fakeService) LookupDetails(_ context.Context, raw string) *types.AddressData {
	f.calls++
	f.raw = raw
	return f.details
}

func (f *fakeService) LookupExtendedDetails(_ context.Context, selected *types.AddressData) *types.AddressData {
	f.calls++
	f.selected = selected
	return f.details
}

func (f *fakeService) SuggestByText(_ context.Context, raw string, count int) []types.AddressData {
	f.calls++
	f.raw, f.count = raw, count
	return f.suggestions
}

func (f *fakeService) SuggestByCoordinates(_ context.Context, lat, lon float64, count int) []types.AddressData {
	f.calls++
	f.lat, f.lon, f.count = lat, lon, count
	return f.suggestions
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   *backendtypes.APIError `json:"error"`
}

func serve(t *testing.T, h http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAddressHandler_Format(t *testing.T) {
	svc := &fakeService{}
	w, env := serve(t, NewAddressHandler(svc, backendtypes.SuggestionsConfig{}).Format, http.MethodGet, "/api/v1/address/format?q=main+st", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"address":"MAIN ST"}`, string(env.Data))
	assert.Equal(t, "main st", svc.raw)
}

func TestAddressHandler_Details(t *testing.T) {
	svc := &fakeService{details: testutil.AddressPtr("1 Main St", "12345")}
	_, env := serve(t, NewAddressHandler(svc, backendtypes.SuggestionsConfig{}).Details, http.MethodGet, "/api/v1/address/details?q=1+main", "")

	var got types.AddressData
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "1 Main St", got.Address)
	assert.Equal(t, "1 main", svc.raw)

	svc.details = nil
	_, env = serve(t, NewAddressHandler(svc, backendtypes.SuggestionsConfig{}).Details, http.MethodGet, "/api/v1/address/details?q=nowhere", "")
	assert.True(t, env.Success)
	assert.True(t, len(env.Data) == 0 || string(env.Data) == "null")
}

func TestAddressHandler_ExtendedDetails(t *testing.T) {
	svc := &fakeService{details: testutil.AddressPtr("1 Main St", "12345")}
	h := NewAddressHandler(svc, backendtypes.SuggestionsConfig{}).ExtendedDetails

	_, env := serve(t, h, http.MethodPost, "/api/v1/address/details/extended", `{"address":"1 Main"}`)
	assert.True(t, env.Success)
	require.NotNil(t, svc.selected)
	assert.Equal(t, "1 Main", svc.selected.Address)

	_, env = serve(t, h, http.MethodPost, "/api/v1/address/details/extended", `null`)
	assert.True(t, env.Success)
	assert.Nil(t, svc.selected)

	w, env := serve(t, h, http.MethodPost, "/api/v1/address/details/extended", `{"address":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, backendtypes.ErrCodeInvalidRequest, env.Error.Code)

	w, env = serve(t, h, http.MethodGet, "/api/v1/address/details/extended", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, backendtypes.ErrCodeMethodNotAllowed, env.Error.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}

func TestAddressHandler_Suggestions(t *testing.T) {
	svc := &fakeService{suggestions: []types.AddressData{testutil.Address("1 Main St", ""), testutil.Address("2 Main St", "")}}
	h := NewAddressHandler(svc, backendtypes.SuggestionsConfig{})

	_, env := serve(t, h.Suggestions, http.MethodGet, "/api/v1/address/suggestions?q=main&count=2", "")
	var got []types.AddressData
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, svc.count)

	_, _ = serve(t, h.Suggestions, http.MethodGet, "/api/v1/address/suggestions?q=main", "")
	assert.Equal(t, backendtypes.DefaultSuggestionCount, svc.count, "absent count uses the default")

	_, env = serve(t, h.FormattedSuggestions, http.MethodGet, "/api/v1/address/suggestions/formatted?q=main&count=5", "")
	assert.JSONEq(t, `["1 Main St","2 Main St"]`, string(env.Data))

	calls := svc.calls
	w, env := serve(t, h.Suggestions, http.MethodGet, "/api/v1/address/suggestions?q=main&count=ten", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, backendtypes.ErrCodeInvalidRequest, env.Error.Code)
	assert.Equal(t, calls, svc.calls)
}

func TestAddressHandler_SuggestionLimits(t *testing.T) {
	svc := &fakeService{suggestions: []types.AddressData{}}
	h := NewAddressHandler(svc, backendtypes.SuggestionsConfig{DefaultCount: 4, MaxCount: 6})

	tests := map[string]int{"": 4, "&count=0": 4, "&count=-2": 4, "&count=5": 5, "&count=50": 6}
	for query, want := range tests {
		_, _ = serve(t, h.Suggestions, http.MethodGet, "/api/v1/address/suggestions?q=main"+query, "")
		assert.Equal(t, want, svc.count, "text%s", query)

		_, _ = serve(t, h.GeoSuggestions, http.MethodGet, "/api/v1/address/suggestions/geo?lat=1&lon=2"+query, "")
		assert.Equal(t, want, svc.count, "geo%s", query)
	}
}

func TestAddressHandler_GeoSuggestions(t *testing.T) {
	svc := &fakeService{suggestions: []types.AddressData{}}
	h := NewAddressHandler(svc, backendtypes.SuggestionsConfig{}).GeoSuggestions

	w, env := serve(t, h, http.MethodGet, "/api/v1/address/suggestions/geo?lat=55.75&lon=37.61&count=3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, 55.75, svc.lat)
	assert.Equal(t, 37.61, svc.lon)
	assert.Equal(t, 3, svc.count)

	bad := []string{
		"lon=37.61",
		"lat=55.75",
		"lat=north&lon=1",
		"lat=91&lon=0",
		"lat=0&lon=-180.5",
		"lat=NaN&lon=0",
		"lat=0&lon=0&count=x",
	}
	for _, q := range bad {
		w, env := serve(t, h, http.MethodGet, "/api/v1/address/suggestions/geo?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, backendtypes.ErrCodeInvalidRequest, env.Error.Code, q)
	}
}

func TestProviderHandler_ListProviders(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(20, testutil.NewTextOnlyProvider("text")))
	require.NoError(t, reg.Register(10, testutil.NewConfigurableMockProvider("full")))

	_, env := serve(t, NewProviderHandler(reg).ListProviders, http.MethodGet, "/api/providers", "")

	var infos []backendtypes.ProviderInfo
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "full", infos[0].Name)
	assert.Equal(t, 10, infos[0].Priority)
	assert.Len(t, infos[0].Capabilities, 4)
	assert.Equal(t, []types.Operation{types.OperationSuggestByText}, infos[1].Capabilities)

	_, env = serve(t, NewProviderHandler(nil).ListProviders, http.MethodGet, "/api/providers", "")
	assert.JSONEq(t, `[]`, string(env.Data))
}

type reportingProvider struct {
	*testutil.ConfigurableMockProvider
}

func (reportingProvider) ProviderStatus() interface{} {
	return map[string]int{"total_requests": 3}
}

type wrappedProvider struct {
	types.Provider
}

func (w wrappedProvider) Unwrap() types.Provider { return w.Provider }

func TestProviderHandler_ListProvidersIncludesStatus(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(1, wrappedProvider{reportingProvider{testutil.NewConfigurableMockProvider("remote")}}))
	require.NoError(t, reg.Register(2, testutil.NewConfigurableMockProvider("static")))

	_, env := serve(t, NewProviderHandler(reg).ListProviders, http.MethodGet, "/api/providers", "")

	var infos []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, 2)
	assert.JSONEq(t, `{"total_requests":3}`, string(infos[0]["status"]))
	assert.NotContains(t, infos[1], "status")
}

func TestHealthHandler(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(1, testutil.NewConfigurableMockProvider("good")))
	require.NoError(t, reg.Register(2, testutil.NewConfigurableMockProvider("bad")))
	require.NoError(t, reg.Register(3, testutil.NewConfigurableMockProvider("idle")))

	collector := metrics.NewDefaultMetricsCollector()
	defer collector.Close()
	ctx := context.Background()
	_ = collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventSuccess, ProviderName: "good", Operation: types.OperationDetails, AttemptNumber: 1})
	_ = collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventProviderError, ProviderName: "bad", Operation: types.OperationDetails, ErrorType: "timeout", ErrorMessage: "slow"})

	gate := featuregate.NewToggle(false)
	_, env := serve(t, NewHealthHandler(reg, collector, gate, "1.2.3").Health, http.MethodGet, "/health", "")

	var health backendtypes.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.False(t, health.Enabled)
	assert.Equal(t, "ok", health.Providers["good"].Status)
	assert.Equal(t, "degraded", health.Providers["bad"].Status)
	assert.Equal(t, "unknown", health.Providers["idle"].Status)

	_, env = serve(t, NewHealthHandler(registry.New(), nil, nil, "v").Health, http.MethodGet, "/health", "")
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "no_providers", health.Status)
	assert.True(t, health.Enabled)
}

func TestMetricsHandler(t *testing.T) {
	collector := metrics.NewDefaultMetricsCollector()
	defer collector.Close()
	_ = collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventRequest, Operation: types.OperationSuggestByText})
	_ = collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventSuccess, ProviderName: "p", Operation: types.OperationSuggestByText, AttemptNumber: 1})

	h := NewMetricsHandler(collector)

	_, env := serve(t, h.GetMetrics, http.MethodGet, "/api/metrics", "")
	var snapshot types.MetricsSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, int64(1), snapshot.TotalDispatches)

	w, _ := serve(t, h.GetProviderMetrics, http.MethodGet, "/api/metrics/providers/p", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = serve(t, h.GetProviderMetrics, http.MethodGet, "/api/metrics/providers/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = serve(t, h.GetSystemMetrics, http.MethodGet, "/api/metrics/system", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(t, NewMetricsHandler(nil).GetMetrics, http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGateHandler(t *testing.T) {
	gate := featuregate.NewToggle(true)
	h := NewGateHandler(gate, logging.Discard()).Gate

	_, env := serve(t, h, http.MethodGet, "/api/gate", "")
	assert.JSONEq(t, `{"enabled":true}`, string(env.Data))

	_, env = serve(t, h, http.MethodPut, "/api/gate", `{"enabled":false}`)
	assert.JSONEq(t, `{"enabled":false}`, string(env.Data))
	assert.False(t, gate.Enabled())

	w, _ := serve(t, h, http.MethodPut, "/api/gate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(t, h, http.MethodDelete, "/api/gate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
