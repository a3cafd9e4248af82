package factory

import (
	"fmt"

	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/providers/decorate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/providers/remote"
	"github.com/cecil-the-coder/address-provider-kit/pkg/providers/static"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/retry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// RegisterDefaultProviders registers the built-in provider types
func RegisterDefaultProviders(factory *DefaultProviderFactory) {
	factory.RegisterProvider(types.ProviderTypeStatic, func(config types.ProviderConfig) (types.Provider, error) {
		return static.NewFromConfig(config)
	})
	factory.RegisterProvider(types.ProviderTypeRemote, func(config types.ProviderConfig) (types.Provider, error) {
		return remote.New(config)
	})
}

// BuildRegistry creates every enabled provider in configs, wraps it with its
// timeout, rate limit and retry settings and registers it with its priority.
// Disabled providers are skipped. The first construction error aborts the build.
func BuildRegistry(factory *DefaultProviderFactory, configs []types.ProviderConfig, logger *logging.Logger) (*registry.Registry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	reg := registry.New()

	for _, cfg := range configs {
		if !cfg.IsEnabled() {
			logger.Infof("[factory] provider '%s' is disabled, skipping", cfg.Name)
			continue
		}
		if err := ValidateProviderConfig(cfg); err != nil {
			return nil, err
		}

		provider, err := factory.CreateProvider(cfg.Type, cfg)
		if err != nil {
			return nil, err
		}
		provider = decorate.Wrap(provider, DecoratorOptions(cfg, logger)...)

		if err := reg.Register(cfg.Priority, provider); err != nil {
			return nil, fmt.Errorf("failed to register provider %q: %w", cfg.Name, err)
		}
		logger.Infof("[factory] registered %s provider '%s' with priority %d (%v)",
			cfg.Type, cfg.Name, cfg.Priority, types.Capabilities(provider))
	}

	return reg, nil
}

// RetryPolicy overlays the set fields of cfg on the default policy
func RetryPolicy(cfg types.RetryConfig) *retry.RetryPolicy {
	policy := retry.DefaultRetryPolicy().WithMaxRetries(cfg.MaxRetries)
	if cfg.InitialDelay > 0 {
		policy = policy.WithInitialDelay(cfg.InitialDelay)
	}
	if cfg.MaxDelay > 0 {
		policy = policy.WithMaxDelay(cfg.MaxDelay)
	}
	if cfg.Multiplier > 0 {
		policy = policy.WithMultiplier(cfg.Multiplier)
	}
	if cfg.Jitter > 0 {
		policy = policy.WithJitter(cfg.Jitter)
	}
	return policy
}

// DecoratorOptions translates the limits in cfg into decorator options
func DecoratorOptions(cfg types.ProviderConfig, logger *logging.Logger) []decorate.Option {
	opts := []decorate.Option{decorate.WithLogger(logger)}
	if cfg.Timeout > 0 {
		opts = append(opts, decorate.WithTimeout(cfg.Timeout))
	}
	if cfg.RateLimit != nil {
		opts = append(opts, decorate.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	if cfg.Retry != nil && cfg.Retry.MaxRetries > 0 {
		opts = append(opts, decorate.WithRetry(RetryPolicy(*cfg.Retry)))
	}
	return opts
}
