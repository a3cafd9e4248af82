package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// subscription delivers recorded events to one consumer. A nil kinds set receives everything.
type subscription struct {
	id        string
	events    chan types.MetricEvent
	kinds     map[types.MetricEventType]struct{}
	dropped   atomic.Int64
	collector *DefaultMetricsCollector
	closed    atomic.Bool

	// mu serializes publish against close so a send never hits a closed channel
	mu        sync.Mutex
	closeOnce sync.Once
}

func newSubscription(id string, buffer int, collector *DefaultMetricsCollector, kinds []types.MetricEventType) *subscription {
	sub := &subscription{
		id:        id,
		events:    make(chan types.MetricEvent, buffer),
		collector: collector,
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[types.MetricEventType]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}
	return sub
}

func (s *subscription) Events() <-chan types.MetricEvent { return s.events }

func (s *subscription) ID() string { return s.id }

// OverflowCount is the number of matching events dropped on a full buffer
func (s *subscription) OverflowCount() int64 { return s.dropped.Load() }

// Unsubscribe detaches from the collector and closes the channel. Safe to call twice.
func (s *subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.collector != nil {
		s.collector.detach(s.id)
	}
	s.close()
}

func (s *subscription) wants(kind types.MetricEventType) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// publish never blocks the recording dispatcher
func (s *subscription) publish(event types.MetricEvent) {
	if !s.wants(event.Type) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	select {
	case s.events <- event:
	default:
		s.dropped.Add(1)
	}
}

func (s *subscription) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.events)
	})
}
