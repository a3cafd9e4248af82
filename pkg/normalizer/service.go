// Package normalizer is the public entry point for address normalization.
// It applies the feature gate, dispatches to providers and formats results for display.
package normalizer

import (
	"context"

	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/formatter"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Dispatcher is the lookup engine behind a Service.
// *dispatcher.Dispatcher satisfies it.
type Dispatcher interface {
	LookupDetails(ctx context.Context, raw string) *types.AddressData
	LookupExtendedDetails(ctx context.Context, selected *types.AddressData) *types.AddressData
	SuggestByText(ctx context.Context, raw string, count int) []types.AddressData
	SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) []types.AddressData
}

// Service normalizes raw addresses. When the gate is disabled every operation is a
// passthrough that touches neither the dispatcher nor any provider.
type Service struct {
	gate       featuregate.Gate
	dispatcher Dispatcher
}

// New creates a Service. A nil gate means always enabled.
func New(gate featuregate.Gate, dispatcher Dispatcher) *Service {
	if gate == nil {
		gate = featuregate.Static(true)
	}
	return &Service{gate: gate, dispatcher: dispatcher}
}

// Enabled reports the current gate state.
func (s *Service) Enabled() bool {
	return s.gate.Enabled()
}

// FormatAddress returns the display form of the best match for raw, or raw itself
// when disabled or when nothing formats to a non-blank string.
func (s *Service) FormatAddress(ctx context.Context, raw string) string {
	if !s.gate.Enabled() {
		return raw
	}
	formatted := formatter.Format(s.dispatcher.LookupDetails(ctx, raw))
	if types.IsBlank(formatted) {
		return raw
	}
	return formatted
}

// FormatSuggestions returns display strings for the text suggestions of raw.
// Blank entries are dropped and order is preserved.
func (s *Service) FormatSuggestions(ctx context.Context, raw string, count int) []string {
	if !s.gate.Enabled() {
		return []string{}
	}
	return formatter.FormatAll(s.dispatcher.SuggestByText(ctx, raw, count))
}

// LookupDetails returns the best detail match for raw, or nil.
func (s *Service) LookupDetails(ctx context.Context, raw string) *types.AddressData {
	if !s.gate.Enabled() {
		return nil
	}
	return s.dispatcher.LookupDetails(ctx, raw)
}

// LookupExtendedDetails enriches a previously selected suggestion, or returns nil.
func (s *Service) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) *types.AddressData {
	if !s.gate.Enabled() {
		return nil
	}
	return s.dispatcher.LookupExtendedDetails(ctx, selected)
}

// SuggestByText returns suggestions for raw. The result is never nil.
func (s *Service) SuggestByText(ctx context.Context, raw string, count int) []types.AddressData {
	if !s.gate.Enabled() {
		return []types.AddressData{}
	}
	return s.dispatcher.SuggestByText(ctx, raw, count)
}

// SuggestByCoordinates returns suggestions near the coordinates. The result is never nil.
func (s *Service) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) []types.AddressData {
	if !s.gate.Enabled() {
		return []types.AddressData{}
	}
	return s.dispatcher.SuggestByCoordinates(ctx, lat, lon, count)
}
