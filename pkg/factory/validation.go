package factory

import (
	"fmt"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// ValidateProviderConfig validates a provider configuration
func ValidateProviderConfig(config types.ProviderConfig) error {
	if types.IsBlank(config.Name) {
		return fmt.Errorf("provider name is required")
	}
	if config.Type == "" {
		return fmt.Errorf("provider %q: type is required", config.Name)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("provider %q: timeout must not be negative", config.Name)
	}
	if rl := config.RateLimit; rl != nil && (rl.RequestsPerSecond < 0 || rl.Burst < 0) {
		return fmt.Errorf("provider %q: rate_limit values must not be negative", config.Name)
	}
	if r := config.Retry; r != nil && r.MaxRetries < 0 {
		return fmt.Errorf("provider %q: retry.max_retries must not be negative", config.Name)
	}
	if o := config.OAuth; o != nil && (o.ClientID == "" || o.TokenURL == "") {
		return fmt.Errorf("provider %q: oauth requires client_id and token_url", config.Name)
	}
	return nil
}

// ValidateProviderConfigs validates every config and checks that enabled names are unique
func ValidateProviderConfigs(configs []types.ProviderConfig, factory *DefaultProviderFactory) error {
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if err := ValidateProviderConfig(cfg); err != nil {
			return err
		}
		if factory != nil && !factory.IsSupported(cfg.Type) {
			return fmt.Errorf("provider %q: unknown type %q", cfg.Name, cfg.Type)
		}
		if seen[cfg.Name] {
			return fmt.Errorf("duplicate provider name %q", cfg.Name)
		}
		seen[cfg.Name] = true
	}
	return nil
}
