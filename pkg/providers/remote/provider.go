// Package remote implements an address provider that delegates to another
// address-provider-kit server over its JSON API. Requests authenticate with OAuth2
// client credentials when configured, otherwise with rotating bearer API keys.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	kithttp "github.com/cecil-the-coder/address-provider-kit/pkg/http"
	"github.com/cecil-the-coder/address-provider-kit/pkg/keymanager"
	"github.com/cecil-the-coder/address-provider-kit/pkg/ratelimit"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// API paths served by pkg/backend.
const (
	PathDetails         = "/api/v1/address/details"
	PathExtendedDetails = "/api/v1/address/details/extended"
	PathSuggestions     = "/api/v1/address/suggestions"
	PathGeoSuggestions  = "/api/v1/address/suggestions/geo"
)

// Provider calls a remote address-kit server
type Provider struct {
	name        string
	description string
	baseURL     string
	client      *kithttp.HTTPClient
	keys        *keymanager.KeyManager

	// quotas holds one *ratelimit.Tracker per credential ("" for OAuth or anonymous)
	quotas sync.Map
}

// envelope mirrors the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Status is reported for a remote provider on GET /api/providers
type Status struct {
	Client kithttp.ClientMetrics  `json:"client"`
	Keys   []keymanager.KeyStatus `json:"keys,omitempty"`
	Quota  *ratelimit.Info        `json:"quota,omitempty"`
}

// New creates a remote provider from configuration. base_url is required.
// options.user_agent and options.headers set headers sent with every request.
// Retries are configured on the provider decorator, not here.
func New(cfg types.ProviderConfig) (*Provider, error) {
	if types.IsBlank(cfg.BaseURL) {
		return nil, fmt.Errorf("remote provider %s: base_url is required", cfg.Name)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("remote provider %s: invalid base_url: %w", cfg.Name, err)
	}

	builder := kithttp.NewHTTPClientBuilder().
		WithTimeout(cfg.Timeout).
		WithUserAgent(cfg.StringOption("user_agent", "")).
		WithHeaders(cfg.StringMapOption("headers"))

	p := &Provider{
		name:        cfg.Name,
		description: cfg.Description,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
	if p.description == "" {
		p.description = "Remote address-kit server at " + p.baseURL
	}

	if cfg.OAuth != nil {
		cc := &clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		builder.WithBaseClient(cc.Client(context.Background()))
	} else {
		p.keys = keymanager.NewKeyManager(cfg.Name, cfg.ResolveAPIKeys())
	}

	p.client = builder.Build()
	return p, nil
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeRemote }
func (p *Provider) Description() string      { return p.description }

// quota returns the tracker for the upstream quota of key
func (p *Provider) quota(key string) *ratelimit.Tracker {
	if t, ok := p.quotas.Load(key); ok {
		return t.(*ratelimit.Tracker)
	}
	t, _ := p.quotas.LoadOrStore(key, ratelimit.NewTracker())
	return t.(*ratelimit.Tracker)
}

// QuotaStatus returns the last quota reported for the credential in use, if any.
// With several API keys the first key's quota is reported.
func (p *Provider) QuotaStatus() (*ratelimit.Info, bool) {
	key := ""
	if keys := p.keys.GetKeys(); len(keys) > 0 {
		key = keys[0]
	}
	return p.quota(key).Get()
}

// KeyStatus reports API key health, or nil when keys are not used
func (p *Provider) KeyStatus() []keymanager.KeyStatus {
	return p.keys.Status()
}

// ProviderStatus implements types.StatusReporter
func (p *Provider) ProviderStatus() interface{} {
	status := Status{Client: p.client.GetMetrics(), Keys: p.KeyStatus()}
	if info, ok := p.QuotaStatus(); ok {
		status.Quota = info
	}
	return status
}

// LookupDetails implements types.DetailsProvider
func (p *Provider) LookupDetails(ctx context.Context, raw string) (*types.AddressData, error) {
	var out *types.AddressData
	err := p.call(ctx, types.OperationDetails, http.MethodGet, PathDetails, url.Values{"q": {raw}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return p.stamp(out), nil
}

// LookupExtendedDetails implements types.ExtendedDetailsProvider
func (p *Provider) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) (*types.AddressData, error) {
	var out *types.AddressData
	err := p.call(ctx, types.OperationExtendedDetails, http.MethodPost, PathExtendedDetails, nil, selected, &out)
	if err != nil {
		return nil, err
	}
	return p.stamp(out), nil
}

// SuggestByText implements types.TextSuggestionProvider
func (p *Provider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	var out []types.AddressData
	query := url.Values{"q": {raw}, "count": {strconv.Itoa(count)}}
	if err := p.call(ctx, types.OperationSuggestByText, http.MethodGet, PathSuggestions, query, nil, &out); err != nil {
		return nil, err
	}
	return p.stampAll(out), nil
}

// SuggestByCoordinates implements types.CoordinateSuggestionProvider
func (p *Provider) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) ([]types.AddressData, error) {
	var out []types.AddressData
	query := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"count": {strconv.Itoa(count)},
	}
	if err := p.call(ctx, types.OperationSuggestByCoordinates, http.MethodGet, PathGeoSuggestions, query, nil, &out); err != nil {
		return nil, err
	}
	return p.stampAll(out), nil
}

// call performs one API request, rotating API keys when they are configured.
func (p *Provider) call(ctx context.Context, op types.Operation, method, path string, query url.Values, body, target interface{}) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	do := func(ctx context.Context, key string) error {
		quota := p.quota(key)
		if wait := quota.GetWaitTime(); wait > 0 {
			return types.NewRateLimitError(p.name, ratelimit.Seconds(wait)).
				WithOperation(op).
				WithOriginalErr(fmt.Errorf("quota exhausted for %s", wait))
		}

		req, err := kithttp.NewJSONRequest(ctx, method, endpoint, body)
		if err != nil {
			return types.NewProviderError(p.name, types.ErrCodeInvalidRequest, err.Error()).WithOperation(op)
		}
		if key != "" {
			for k, v := range kithttp.AuthHeaders("bearer", key) {
				req.Header.Set(k, v)
			}
		}
		return p.do(ctx, op, req, quota, target)
	}

	if p.keys == nil {
		return do(ctx, "")
	}
	return p.keys.ExecuteWithFailover(ctx, do)
}

func (p *Provider) do(ctx context.Context, op types.Operation, req *http.Request, quota *ratelimit.Tracker, target interface{}) error {
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return types.NewTimeoutError(p.name, err.Error()).WithOperation(op).WithOriginalErr(err)
		}
		return types.NewNetworkError(p.name, err.Error()).WithOperation(op).WithOriginalErr(err)
	}
	if info, ok := ratelimit.ParseHeaders(resp.Header, time.Now()); ok {
		quota.Update(info)
	}

	var env envelope
	if err := kithttp.ProcessJSONResponse(resp, &env); err != nil {
		var apiErr *kithttp.APIError
		if errors.As(err, &apiErr) {
			return apiErr.ToProviderError(p.name).WithOperation(op)
		}
		return types.NewInvalidResponseError(p.name, err.Error()).WithOperation(op).WithOriginalErr(err)
	}

	if !env.Success {
		msg := "remote reported failure"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return types.NewProviderError(p.name, types.ErrCodeServerError, msg).
			WithOperation(op).
			WithRequestID(env.RequestID)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return types.NewInvalidResponseError(p.name, fmt.Sprintf("failed to decode data: %v", err)).
			WithOperation(op).
			WithRequestID(env.RequestID)
	}
	return nil
}

// stamp fills Source for results that do not name one.
func (p *Provider) stamp(a *types.AddressData) *types.AddressData {
	if a != nil && a.Source == "" {
		a.Source = p.name
	}
	return a
}

func (p *Provider) stampAll(list []types.AddressData) []types.AddressData {
	for i := range list {
		p.stamp(&list[i])
	}
	return list
}
