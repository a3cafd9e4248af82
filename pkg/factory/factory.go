package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Constructor builds a provider from its configuration
type Constructor func(config types.ProviderConfig) (types.Provider, error)

// DefaultProviderFactory is the default factory implementation
type DefaultProviderFactory struct {
	providers map[types.ProviderType]Constructor
	mutex     sync.RWMutex
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *DefaultProviderFactory {
	return &DefaultProviderFactory{
		providers: make(map[types.ProviderType]Constructor),
	}
}

// RegisterProvider registers a new provider type
func (f *DefaultProviderFactory) RegisterProvider(providerType types.ProviderType, constructor Constructor) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.providers[providerType] = constructor
}

// CreateProvider creates a provider instance
func (f *DefaultProviderFactory) CreateProvider(providerType types.ProviderType, config types.ProviderConfig) (types.Provider, error) {
	f.mutex.RLock()
	constructor, exists := f.providers[providerType]
	f.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider type %s not registered", providerType)
	}

	provider, err := constructor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider %q: %w", providerType, config.Name, err)
	}
	return provider, nil
}

// IsSupported reports whether a constructor is registered for providerType
func (f *DefaultProviderFactory) IsSupported(providerType types.ProviderType) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	_, ok := f.providers[providerType]
	return ok
}

// GetSupportedProviders returns all supported provider types, sorted
func (f *DefaultProviderFactory) GetSupportedProviders() []types.ProviderType {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	providerTypes := make([]types.ProviderType, 0, len(f.providers))
	for providerType := range f.providers {
		providerTypes = append(providerTypes, providerType)
	}
	sort.Slice(providerTypes, func(i, j int) bool { return providerTypes[i] < providerTypes[j] })

	return providerTypes
}
