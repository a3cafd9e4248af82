// Package registry holds the set of address providers available to the dispatcher.
// Providers are registered at process start (and may be added or removed later) together
// with a priority; lower priorities are consulted first.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Registry is a concurrency-safe, ordered list of provider registrations.
type Registry struct {
	mu      sync.RWMutex
	entries []types.Registration
}

// New creates a registry pre-populated with regs, in the given order.
// Registrations whose provider is nil or cannot report a name are dropped.
func New(regs ...types.Registration) *Registry {
	r := &Registry{}
	for _, reg := range regs {
		if _, ok := NameOf(reg.Provider); ok {
			r.entries = append(r.entries, reg)
		}
	}
	return r
}

// NameOf returns p.Name(). It reports false for a nil provider and for one whose
// Name panics, such as a typed nil pointer.
func NameOf(p types.Provider) (name string, ok bool) {
	if p == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			name, ok = "", false
		}
	}()
	return p.Name(), true
}

// Register adds a provider with the given priority. Provider names must be unique.
func (r *Registry) Register(priority int, provider types.Provider) error {
	if provider == nil {
		return fmt.Errorf("cannot register nil provider")
	}
	name, ok := NameOf(provider)
	if !ok {
		return fmt.Errorf("cannot register provider %T: Name() failed", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Provider.Name() == name {
			return fmt.Errorf("provider %s already registered", name)
		}
	}
	r.entries = append(r.entries, types.Registration{Priority: priority, Provider: provider})
	return nil
}

// Unregister removes the provider with the given name and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.Provider.Name() == name {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Registrations returns a copy of the registrations in registration order.
func (r *Registry) Registrations() []types.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Registration, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the registration for name.
func (r *Registry) Get(name string) (types.Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Provider.Name() == name {
			return e, true
		}
	}
	return types.Registration{}, false
}

// Names returns provider names in priority order.
func (r *Registry) Names() []string {
	regs := Ordered(r.Registrations())
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.Provider.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Ordered returns regs stable-sorted by ascending priority, skipping nil providers and
// providers that cannot report a name. The input slice is not modified.
func Ordered(regs []types.Registration) []types.Registration {
	out := make([]types.Registration, 0, len(regs))
	for _, reg := range regs {
		if _, ok := NameOf(reg.Provider); ok {
			out = append(out, reg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
