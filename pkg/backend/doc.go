// Package backend provides the HTTP server that exposes address normalization.
//
// The server ties the normalizer service, the provider registry, the metrics collector and
// the feature gate to a net/http mux. Sub-packages:
//
//   - handlers: address, health, provider, metrics and gate handlers
//   - middleware: authentication, CORS, logging, request IDs and panic recovery
//
// # Example
//
//	server := backend.NewServer(cfg.BackendConfig, backend.Dependencies{
//	    Service:   normalizer.New(gate, d),
//	    Registry:  reg,
//	    Collector: collector,
//	    Gate:      gate,
//	})
//	err := server.ListenAndServeWithGracefulShutdown(stop)
package backend
