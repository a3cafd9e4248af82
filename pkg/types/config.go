package types

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderConfig configures one provider instance
type ProviderConfig struct {
	Type        ProviderType `json:"type" yaml:"type"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    int          `json:"priority" yaml:"priority"`
	Enabled     *bool        `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Remote endpoint and credentials
	BaseURL   string       `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey    string       `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeys   []string     `json:"api_keys,omitempty" yaml:"api_keys,omitempty"`
	APIKeyEnv string       `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	OAuth     *OAuthConfig `json:"oauth,omitempty" yaml:"oauth,omitempty"`

	// Limits and timeouts
	Timeout   time.Duration    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RateLimit *RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Retry     *RetryConfig     `json:"retry,omitempty" yaml:"retry,omitempty"`

	// Provider-specific settings
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// OAuthConfig holds client-credentials settings for a remote provider
type OAuthConfig struct {
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	TokenURL     string   `json:"token_url" yaml:"token_url"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// RateLimitConfig limits outbound calls to a provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// RetryConfig configures retries of retryable provider errors
type RetryConfig struct {
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	MaxDelay     time.Duration `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
	Multiplier   float64       `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Jitter       float64       `json:"jitter,omitempty" yaml:"jitter,omitempty"`
}

// IsEnabled reports whether the provider should be registered. Unset means enabled.
func (c ProviderConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ResolveAPIKeys returns the configured keys: api_keys, then api_key, then the
// comma-separated value of the api_key_env variable.
func (c ProviderConfig) ResolveAPIKeys() []string {
	keys := make([]string, 0, len(c.APIKeys)+1)
	keys = append(keys, c.APIKeys...)
	if c.APIKey != "" {
		keys = append(keys, c.APIKey)
	}
	if c.APIKeyEnv != "" {
		for _, k := range strings.Split(os.Getenv(c.APIKeyEnv), ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// StringOption returns a string option or def
func (c ProviderConfig) StringOption(key, def string) string {
	if v, ok := c.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// StringMapOption returns a map option with its values formatted as strings, or nil
func (c ProviderConfig) StringMapOption(key string) map[string]string {
	var out map[string]string
	switch v := c.Options[key].(type) {
	case map[string]string:
		out = make(map[string]string, len(v))
		for k, val := range v {
			out[k] = val
		}
	case map[string]interface{}:
		out = make(map[string]string, len(v))
		for k, val := range v {
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// FloatOption returns a numeric option or def. Integers are accepted.
func (c ProviderConfig) FloatOption(key string, def float64) float64 {
	switch v := c.Options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
