// Package factory creates address providers from configuration.
//
// DefaultProviderFactory maps a provider type to its constructor. RegisterDefaultProviders
// installs the built-in static and remote providers, and BuildRegistry turns a list of
// provider configs into a registry ready for the dispatcher, applying the configured
// timeout, rate limit and retry decorators.
package factory
