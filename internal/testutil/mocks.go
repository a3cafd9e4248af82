// Package testutil provides shared testing utilities, mocks, and fixtures
// for use across the address-provider-kit test suite.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// ConfigurableMockProvider is a mock provider implementing every lookup operation.
// Each operation returns its configured result, error or panic and records the call.
type ConfigurableMockProvider struct {
	mu sync.RWMutex

	// Configuration
	name         string
	providerType types.ProviderType
	description  string

	// Mock responses
	details               *types.AddressData
	extendedDetails       *types.AddressData
	textSuggestions       []types.AddressData
	coordinateSuggestions []types.AddressData

	// Behavior control
	errors      map[types.Operation]error
	panics      map[types.Operation]interface{}
	unsupported map[types.Operation]bool

	// Call tracking
	calls        map[types.Operation]int
	lastRaw      string
	lastSelected *types.AddressData
	lastCount    int
	lastLat      float64
	lastLon      float64
}

// NewConfigurableMockProvider creates a new mock provider that returns nothing until configured.
func NewConfigurableMockProvider(name string) *ConfigurableMockProvider {
	return &ConfigurableMockProvider{
		name:         name,
		providerType: types.ProviderTypeMock,
		description:  fmt.Sprintf("Mock %s provider for testing", name),
		errors:       make(map[types.Operation]error),
		panics:       make(map[types.Operation]interface{}),
		unsupported:  make(map[types.Operation]bool),
		calls:        make(map[types.Operation]int),
	}
}

// Name returns the provider name
func (m *ConfigurableMockProvider) Name() string { return m.name }

// Type returns the provider type
func (m *ConfigurableMockProvider) Type() types.ProviderType { return m.providerType }

// Description returns the provider description
func (m *ConfigurableMockProvider) Description() string { return m.description }

// SetDetails configures the LookupDetails result
func (m *ConfigurableMockProvider) SetDetails(d *types.AddressData) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = d
	return m
}

// SetExtendedDetails configures the LookupExtendedDetails result
func (m *ConfigurableMockProvider) SetExtendedDetails(d *types.AddressData) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extendedDetails = d
	return m
}

// SetTextSuggestions configures the SuggestByText result
func (m *ConfigurableMockProvider) SetTextSuggestions(s ...types.AddressData) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textSuggestions = s
	return m
}

// SetCoordinateSuggestions configures the SuggestByCoordinates result
func (m *ConfigurableMockProvider) SetCoordinateSuggestions(s ...types.AddressData) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coordinateSuggestions = s
	return m
}

// SetError configures the provider to return err for op
func (m *ConfigurableMockProvider) SetError(op types.Operation, err error) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[op] = err
	return m
}

// SetPanic configures the provider to panic with v for op
func (m *ConfigurableMockProvider) SetPanic(op types.Operation, v interface{}) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[op] = v
	return m
}

// SetUnsupported makes op return types.ErrUnsupportedOperation
func (m *ConfigurableMockProvider) SetUnsupported(op types.Operation) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsupported[op] = true
	return m
}

// CallCount returns how many times op was invoked
func (m *ConfigurableMockProvider) CallCount(op types.Operation) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// TotalCalls returns the number of invocations across all operations
func (m *ConfigurableMockProvider) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// LastRaw returns the last raw text passed to LookupDetails or SuggestByText
func (m *ConfigurableMockProvider) LastRaw() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRaw
}

// LastSelected returns the last record passed to LookupExtendedDetails
func (m *ConfigurableMockProvider) LastSelected() *types.AddressData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSelected
}

// LastCount returns the last count passed to a suggestion operation
func (m *ConfigurableMockProvider) LastCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCount
}

// LastCoordinates returns the last coordinates passed to SuggestByCoordinates
func (m *ConfigurableMockProvider) LastCoordinates() (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLat, m.lastLon
}

// begin records the call and applies the configured failure mode for op.
func (m *ConfigurableMockProvider) begin(op types.Operation) error {
	m.mu.Lock()
	m.calls[op]++
	p, shouldPanic := m.panics[op]
	err := m.errors[op]
	unsupported := m.unsupported[op]
	m.mu.Unlock()

	if shouldPanic {
		panic(p)
	}
	if unsupported {
		return types.ErrUnsupportedOperation
	}
	return err
}

// LookupDetails returns the configured details
func (m *ConfigurableMockProvider) LookupDetails(ctx context.Context, raw string) (*types.AddressData, error) {
	m.mu.Lock()
	m.lastRaw = raw
	m.mu.Unlock()
	if err := m.begin(types.OperationDetails); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.details, nil
}

// LookupExtendedDetails returns the configured extended details
func (m *ConfigurableMockProvider) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) (*types.AddressData, error) {
	m.mu.Lock()
	m.lastSelected = selected
	m.mu.Unlock()
	if err := m.begin(types.OperationExtendedDetails); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.extendedDetails, nil
}

// SuggestByText returns the configured text suggestions
func (m *ConfigurableMockProvider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	m.mu.Lock()
	m.lastRaw = raw
	m.lastCount = count
	m.mu.Unlock()
	if err := m.begin(types.OperationSuggestByText); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.textSuggestions, nil
}

// SuggestByCoordinates returns the configured coordinate suggestions
func (m *ConfigurableMockProvider) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) ([]types.AddressData, error) {
	m.mu.Lock()
	m.lastLat = lat
	m.lastLon = lon
	m.lastCount = count
	m.mu.Unlock()
	if err := m.begin(types.OperationSuggestByCoordinates); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coordinateSuggestions, nil
}

// NameOnlyProvider implements types.Provider and none of the lookup capabilities.
type NameOnlyProvider struct {
	ProviderName string
}

// Name returns the provider name
func (p NameOnlyProvider) Name() string { return p.ProviderName }

// Type returns the provider type
func (p NameOnlyProvider) Type() types.ProviderType { return types.ProviderTypeMock }

// Description returns the provider description
func (p NameOnlyProvider) Description() string { return "provider without lookup capabilities" }

// TextOnlyProvider implements only types.TextSuggestionProvider.
type TextOnlyProvider struct {
	NameOnlyProvider
	Suggestions []types.AddressData
	Err         error

	mu    sync.Mutex
	calls int
}

// NewTextOnlyProvider creates a TextOnlyProvider returning the given suggestions
func NewTextOnlyProvider(name string, suggestions ...types.AddressData) *TextOnlyProvider {
	return &TextOnlyProvider{NameOnlyProvider: NameOnlyProvider{ProviderName: name}, Suggestions: suggestions}
}

// SuggestByText returns the configured suggestions
func (p *TextOnlyProvider) SuggestByText(ctx context.Context, raw string, count int) ([]types.AddressData, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.Suggestions, p.Err
}

// Calls returns the number of SuggestByText invocations
func (p *TextOnlyProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// CountingRegistry wraps a fixed registration list and counts Registrations calls.
type CountingRegistry struct {
	mu    sync.Mutex
	regs  []types.Registration
	calls int
}

// NewCountingRegistry creates a registry over regs
func NewCountingRegistry(regs ...types.Registration) *CountingRegistry {
	return &CountingRegistry{regs: regs}
}

// Registrations returns a copy of the configured registrations
func (r *CountingRegistry) Registrations() []types.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]types.Registration, len(r.regs))
	copy(out, r.regs)
	return out
}

// Calls returns the number of Registrations invocations
func (r *CountingRegistry) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Address builds an AddressData fixture
func Address(address, postalCode string) types.AddressData {
	return types.AddressData{Address: address, PostalCode: postalCode}
}

// AddressPtr builds an *AddressData fixture
func AddressPtr(address, postalCode string) *types.AddressData {
	a := Address(address, postalCode)
	return &a
}
