package types

import (
	"context"
	"errors"
)

// ProviderType represents the kind of address data source
type ProviderType string

const (
	ProviderTypeStatic ProviderType = "static"
	ProviderTypeRemote ProviderType = "remote"
	ProviderTypeMock   ProviderType = "mock"
)

// Operation names one of the four lookup operations.
type Operation string

const (
	OperationDetails              Operation = "details"
	OperationExtendedDetails      Operation = "extended_details"
	OperationSuggestByText        Operation = "suggest_text"
	OperationSuggestByCoordinates Operation = "suggest_coordinates"
)

// ErrUnsupportedOperation is returned by providers (or wrappers around them) that do not
// implement an operation. The dispatcher skips such providers without logging a failure.
var ErrUnsupportedOperation = errors.New("operation not supported by provider")

// Provider is the minimal identity every address provider exposes.
// Lookup capabilities are expressed through the smaller interfaces below so that a
// provider may implement only the operations its backing source supports.
type Provider interface {
	Name() string
	Type() ProviderType
	Description() string
}

// DetailsProvider resolves a raw address string to a single structured address.
// A nil result or a result with a blank address means "no match" and must not be an error.
type DetailsProvider interface {
	Provider
	LookupDetails(ctx context.Context, rawAddress string) (*AddressData, error)
}

// ExtendedDetailsProvider enriches an address previously returned as a suggestion.
type ExtendedDetailsProvider interface {
	Provider
	LookupExtendedDetails(ctx context.Context, selected *AddressData) (*AddressData, error)
}

// TextSuggestionProvider returns up to count candidate addresses for a raw address string.
type TextSuggestionProvider interface {
	Provider
	SuggestByText(ctx context.Context, rawAddress string, count int) ([]AddressData, error)
}

// CoordinateSuggestionProvider returns up to count addresses near a point.
type CoordinateSuggestionProvider interface {
	Provider
	SuggestByCoordinates(ctx context.Context, latitude, longitude float64, count int) ([]AddressData, error)
}

// FullProvider implements every lookup operation.
type FullProvider interface {
	DetailsProvider
	ExtendedDetailsProvider
	TextSuggestionProvider
	CoordinateSuggestionProvider
}

// Supports reports whether p implements op.
func Supports(p Provider, op Operation) bool {
	switch op {
	case OperationDetails:
		_, ok := p.(DetailsProvider)
		return ok
	case OperationExtendedDetails:
		_, ok := p.(ExtendedDetailsProvider)
		return ok
	case OperationSuggestByText:
		_, ok := p.(TextSuggestionProvider)
		return ok
	case OperationSuggestByCoordinates:
		_, ok := p.(CoordinateSuggestionProvider)
		return ok
	}
	return false
}

// Capabilities lists the operations p implements, in a fixed order.
func Capabilities(p Provider) []Operation {
	ops := make([]Operation, 0, 4)
	for _, op := range []Operation{OperationDetails, OperationExtendedDetails, OperationSuggestByText, OperationSuggestByCoordinates} {
		if Supports(p, op) {
			ops = append(ops, op)
		}
	}
	return ops
}

// StatusReporter is implemented by providers that describe the state of their
// transport, such as client counters, credential health or upstream quota.
// The value must encode as JSON.
type StatusReporter interface {
	ProviderStatus() interface{}
}

// StatusOf returns the status of p, looking through wrappers that expose
// Unwrap() Provider. It returns nil when no provider in the chain reports one.
func StatusOf(p Provider) interface{} {
	for p != nil {
		if r, ok := p.(StatusReporter); ok {
			return r.ProviderStatus()
		}
		w, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil
		}
		p = w.Unwrap()
	}
	return nil
}
