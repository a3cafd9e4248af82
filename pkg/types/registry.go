package types

// Registration attaches a priority to a provider. Lower priorities are tried first.
type Registration struct {
	Priority int
	Provider Provider
}

// Registry supplies the currently registered providers.
// Implementations must be safe for concurrent use and may return registrations in any order;
// callers sort by priority and rely on the returned order only to break ties.
type Registry interface {
	Registrations() []Registration
}

// RegistryFunc adapts a plain function to the Registry interface.
type RegistryFunc func() []Registration

// Registrations calls f.
func (f RegistryFunc) Registrations() []Registration {
	return f()
}
