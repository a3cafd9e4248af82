// Package config loads the address kit configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/factory"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Environment variables that override file settings
const (
	EnvEnabled  = "ADDRESSKIT_ENABLED"
	EnvHost     = "ADDRESSKIT_HOST"
	EnvPort     = "ADDRESSKIT_PORT"
	EnvLogLevel = "ADDRESSKIT_LOG_LEVEL"
	EnvAPIKey   = "ADDRESSKIT_API_KEY"
)

// Defaults applied to unset fields
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultVersion         = "1.0.0"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the complete configuration of an address kit process
type Config struct {
	// Enabled seeds the normalizer feature gate. Unset means enabled.
	Enabled *bool `yaml:"enabled"`

	// EnabledEnv names a variable read on every lookup. While it holds a valid
	// switch value it overrides the runtime gate.
	EnabledEnv string `yaml:"enabled_env"`

	backendtypes.BackendConfig `yaml:",inline"`

	Providers []types.ProviderConfig `yaml:"providers"`
}

// Load reads path, applies environment overrides and defaults, and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes data and finishes the config like Load. lookup resolves environment
// variables; nil disables overrides.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, err
		}
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEnabled); ok && v != "" {
		b, err := featuregate.ParseSwitch(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvEnabled, err)
		}
		c.Enabled = &b
	}
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Auth.Enabled = true
		c.Auth.APIPassword = v
	}
	return nil
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Version == "" {
		c.Server.Version = DefaultVersion
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Suggestions.DefaultCount == 0 {
		c.Suggestions.DefaultCount = backendtypes.DefaultSuggestionCount
	}
	if c.Suggestions.MaxCount == 0 {
		c.Suggestions.MaxCount = backendtypes.MaxSuggestionCount
	}
	if c.CORS.Enabled && len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}
	if c.CORS.Enabled && len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
}

// Validate checks server settings, suggestion limits and provider definitions
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Suggestions.DefaultCount < 0 || c.Suggestions.MaxCount < 0 {
		return fmt.Errorf("suggestion counts must not be negative")
	}
	if c.Suggestions.MaxCount > 0 && c.Suggestions.DefaultCount > c.Suggestions.MaxCount {
		return fmt.Errorf("suggestions.default_count (%d) exceeds suggestions.max_count (%d)",
			c.Suggestions.DefaultCount, c.Suggestions.MaxCount)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive when rate limiting is enabled")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must not be negative")
	}

	f := factory.NewProviderFactory()
	factory.RegisterDefaultProviders(f)
	if err := factory.ValidateProviderConfigs(c.Providers, f); err != nil {
		return fmt.Errorf("invalid provider configuration: %w", err)
	}
	return nil
}

// IsEnabled reports the initial state of the feature gate
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ServiceGate returns the gate lookups consult. toggle is the runtime switch;
// with enabled_env set it applies only while the variable is unset or unparsable.
func (c *Config) ServiceGate(toggle featuregate.Gate) featuregate.Gate {
	if c.EnabledEnv == "" {
		return toggle
	}
	return featuregate.Env{Name: c.EnabledEnv, Fallback: toggle}
}

// EnabledProviders returns the providers that are not switched off
func (c *Config) EnabledProviders() []types.ProviderConfig {
	out := make([]types.ProviderConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}
