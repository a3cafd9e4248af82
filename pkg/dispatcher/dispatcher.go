package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

const msgNoProviders = "Data provider delegates are not registered in system"

// Dispatcher tries providers in priority order until one returns a usable result
type Dispatcher struct {
	registry  types.Registry
	logger    *logging.Logger
	collector types.MetricsCollector
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger. The default is logging.Default().
func WithLogger(logger *logging.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetricsCollector enables metric events for every dispatch
func WithMetricsCollector(collector types.MetricsCollector) Option {
	return func(d *Dispatcher) {
		d.collector = collector
	}
}

// New creates a dispatcher over reg. A nil registry behaves like an empty one.
func New(reg types.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LookupDetails returns the first detail match with a non-blank address, or nil.
func (d *Dispatcher) LookupDetails(ctx context.Context, raw string) *types.AddressData {
	if types.IsBlank(raw) {
		d.logger.Warnf("Tried to clean address from empty data")
		d.record(ctx, types.MetricEvent{Type: types.MetricEventInvalidInput, Operation: types.OperationDetails})
		return nil
	}

	result, _ := dispatch(ctx, d, call[*types.AddressData]{
		op:      types.OperationDetails,
		failure: "Failed to clean address from data delegate",
		invoke: func(ctx context.Context, p types.Provider) (*types.AddressData, bool, error) {
			dp, ok := p.(types.DetailsProvider)
			if !ok {
				return nil, false, nil
			}
			res, err := dp.LookupDetails(ctx, raw)
			return res, true, err
		},
		usable:  func(a *types.AddressData) bool { return a.HasAddress() },
		count:   func(a *types.AddressData) int { return 1 },
		noMatch: fmt.Sprintf("Current data delegates are not support to clean up address '%s'", raw),
	})
	return result
}

// LookupExtendedDetails enriches an already selected suggestion. Any non-nil provider
// result is accepted. Each provider receives its own copy of selected.
func (d *Dispatcher) LookupExtendedDetails(ctx context.Context, selected *types.AddressData) *types.AddressData {
	if selected == nil {
		d.logger.Warnf("Tried to prepare detailed suggestion address from empty data")
		d.record(ctx, types.MetricEvent{Type: types.MetricEventInvalidInput, Operation: types.OperationExtendedDetails})
		return nil
	}

	result, _ := dispatch(ctx, d, call[*types.AddressData]{
		op:      types.OperationExtendedDetails,
		failure: "Failed to prepare more detailed suggestion address from data delegate",
		invoke: func(ctx context.Context, p types.Provider) (*types.AddressData, bool, error) {
			ep, ok := p.(types.ExtendedDetailsProvider)
			if !ok {
				return nil, false, nil
			}
			res, err := ep.LookupExtendedDetails(ctx, selected.Clone())
			return res, true, err
		},
		usable:  func(a *types.AddressData) bool { return a != nil },
		count:   func(a *types.AddressData) int { return 1 },
		noMatch: "Current data delegates are not support preparing more detailed suggestion address",
	})
	return result
}

// SuggestByText returns the first non-empty suggestion list for raw.
// count is passed to providers unchanged. The result is never nil.
func (d *Dispatcher) SuggestByText(ctx context.Context, raw string, count int) []types.AddressData {
	if types.IsBlank(raw) {
		d.logger.Warnf("Tried to get suggestion address from empty data")
		d.record(ctx, types.MetricEvent{Type: types.MetricEventInvalidInput, Operation: types.OperationSuggestByText})
		return []types.AddressData{}
	}

	result, ok := dispatch(ctx, d, call[[]types.AddressData]{
		op:      types.OperationSuggestByText,
		failure: "Failed to receive suggestion address from data delegate",
		invoke: func(ctx context.Context, p types.Provider) ([]types.AddressData, bool, error) {
			tp, ok := p.(types.TextSuggestionProvider)
			if !ok {
				return nil, false, nil
			}
			res, err := tp.SuggestByText(ctx, raw, count)
			return res, true, err
		},
		usable:  func(s []types.AddressData) bool { return len(s) > 0 },
		count:   func(s []types.AddressData) int { return len(s) },
		noMatch: fmt.Sprintf("Current data delegates are not support to get suggestion addresses from value '%s'", raw),
	})
	if !ok {
		return []types.AddressData{}
	}
	return result
}

// SuggestByCoordinates returns the first non-empty suggestion list for the coordinates.
// count is passed to providers unchanged. The result is never nil.
func (d *Dispatcher) SuggestByCoordinates(ctx context.Context, lat, lon float64, count int) []types.AddressData {

	result, ok := dispatch(ctx, d, call[[]types.AddressData]{
		op:      types.OperationSuggestByCoordinates,
		failure: "Failed to receive suggestion address from geo coordinates by data delegate",
		invoke: func(ctx context.Context, p types.Provider) ([]types.AddressData, bool, error) {
			cp, ok := p.(types.CoordinateSuggestionProvider)
			if !ok {
				return nil, false, nil
			}
			res, err := cp.SuggestByCoordinates(ctx, lat, lon, count)
			return res, true, err
		},
		usable:  func(s []types.AddressData) bool { return len(s) > 0 },
		count:   func(s []types.AddressData) int { return len(s) },
		noMatch: fmt.Sprintf("Current data delegates are not support to get suggestion addresses from geo coordinates '%f':'%f'", lat, lon),
	})
	if !ok {
		return []types.AddressData{}
	}
	return result
}

// call describes one operation for the shared fallback loop.
type call[T any] struct {
	op      types.Operation
	failure string

	// invoke reports false when the provider lacks the capability.
	invoke  func(ctx context.Context, p types.Provider) (T, bool, error)
	usable  func(T) bool
	count   func(T) int
	noMatch string
}

func dispatch[T any](ctx context.Context, d *Dispatcher, c call[T]) (T, bool) {
	var zero T
	dispatchID := uuid.NewString()

	var regs []types.Registration
	if d.registry != nil {
		regs = registry.Ordered(d.registry.Registrations())
	}

	d.record(ctx, types.MetricEvent{Type: types.MetricEventRequest, DispatchID: dispatchID, Operation: c.op})

	if len(regs) == 0 {
		d.logger.Warnf(msgNoProviders)
		d.record(ctx, types.MetricEvent{
			Type:       types.MetricEventNoResult,
			DispatchID: dispatchID,
			Operation:  c.op,
			ErrorType:  types.NoResultNoProviders,
		})
		return zero, false
	}

	attempt := 0
	previous := ""
	for i, reg := range regs {
		provider := reg.Provider
		name, typ, err := identify(provider)

		var (
			result    T
			supported = true
			latency   time.Duration
		)
		if err != nil {
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
		} else {
			start := time.Now()
			result, supported, err = invokeSafely(ctx, provider, name, c)
			latency = time.Since(start)
		}

		if !supported || errors.Is(err, types.ErrUnsupportedOperation) {
			d.logger.Debugf("[dispatcher] provider '%s' does not support %s", name, c.op)
			continue
		}

		attempt++
		if previous != "" {
			d.record(ctx, types.MetricEvent{
				Type:          types.MetricEventProviderSwitch,
				DispatchID:    dispatchID,
				Operation:     c.op,
				FromProvider:  previous,
				ToProvider:    name,
				AttemptNumber: attempt,
			})
		}
		previous = name

		ev := types.MetricEvent{
			DispatchID:    dispatchID,
			Operation:     c.op,
			ProviderName:  name,
			ProviderType:  typ,
			Latency:       latency,
			AttemptNumber: attempt,
		}

		if err != nil {
			pe := types.AsProviderError(name, err)
			if pe.Operation == "" {
				pe.WithOperation(c.op)
			}
			d.logger.Errorf("%s '%s'. Reason: %s", c.failure, name, reasonOf(err))
			ev.Type = types.MetricEventProviderError
			ev.ErrorType = string(pe.Code)
			ev.ErrorMessage = pe.Message
			d.record(ctx, ev)
			continue
		}

		if !c.usable(result) {
			d.logger.Debugf("[dispatcher] provider '%s' returned no usable result for %s", name, c.op)
			ev.Type = types.MetricEventProviderEmpty
			d.record(ctx, ev)
			continue
		}

		ev.Type = types.MetricEventSuccess
		ev.ResultCount = c.count(result)
		d.record(ctx, ev)
		return result, true
	}

	d.logger.Warnf("%s", c.noMatch)
	d.record(ctx, types.MetricEvent{
		Type:          types.MetricEventNoResult,
		DispatchID:    dispatchID,
		Operation:     c.op,
		ErrorType:     types.NoResultNoMatch,
		AttemptNumber: attempt,
	})
	return zero, false
}

// identify reads the provider's name and type, converting a panic into a ProviderError.
func identify(p types.Provider) (name string, typ types.ProviderType, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.NewProviderError("", types.ErrCodePanic, fmt.Sprintf("panic reading provider identity: %v", r))
		}
	}()
	name = p.Name()
	typ = p.Type()
	return name, typ, nil
}

// invokeSafely runs one provider call, converting a panic into a ProviderError.
func invokeSafely[T any](ctx context.Context, p types.Provider, name string, c call[T]) (result T, supported bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, supported = zero, true
			err = types.NewProviderError(name, types.ErrCodePanic, fmt.Sprintf("panic: %v", r)).
				WithOperation(c.op)
		}
	}()
	return c.invoke(ctx, p)
}

func reasonOf(err error) string {
	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}

func (d *Dispatcher) record(ctx context.Context, ev types.MetricEvent) {
	if d.collector == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	_ = d.collector.RecordEvent(ctx, ev)
}
