package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cecil-the-coder/address-provider-kit/pkg/backend/handlers"
	"github.com/cecil-the-coder/address-provider-kit/pkg/backend/middleware"
	"github.com/cecil-the-coder/address-provider-kit/pkg/backendtypes"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

// Route paths
const (
	PathFormat               = "/api/v1/address/format"
	PathDetails              = "/api/v1/address/details"
	PathExtendedDetails      = "/api/v1/address/details/extended"
	PathSuggestions          = "/api/v1/address/suggestions"
	PathFormattedSuggestions = "/api/v1/address/suggestions/formatted"
	PathGeoSuggestions       = "/api/v1/address/suggestions/geo"
)

// Dependencies are the components served by the backend
type Dependencies struct {
	Service   handlers.AddressService
	Registry  types.Registry
	Collector types.MetricsCollector
	Gate      *featuregate.Toggle
	// ServiceGate is the gate Service consults, reported by /health. Defaults to Gate.
	ServiceGate featuregate.Gate
	Logger      *logging.Logger
}

// Server represents the backend HTTP server that ties all components together
type Server struct {
	config backendtypes.BackendConfig
	deps   Dependencies
	mux    *http.ServeMux
	limit  *middleware.RateLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new backend server with the given configuration and components
func NewServer(config backendtypes.BackendConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Gate == nil {
		deps.Gate = featuregate.NewToggle(true)
	}
	if deps.ServiceGate == nil {
		deps.ServiceGate = deps.Gate
	}
	s := &Server{
		config: config,
		deps:   deps,
		mux:    http.NewServeMux(),
	}
	if config.RateLimit.Enabled {
		s.limit = middleware.NewRateLimiter(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
	}

	s.setupRoutes()

	return s
}

// setupRoutes registers all HTTP routes with their corresponding handlers
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Registry, s.deps.Collector, s.deps.ServiceGate, s.config.Server.Version)
	providerHandler := handlers.NewProviderHandler(s.deps.Registry)
	metricsHandler := handlers.NewMetricsHandler(s.deps.Collector)
	gateHandler := handlers.NewGateHandler(s.deps.Gate, s.deps.Logger)

	// Health and status endpoints
	s.mux.HandleFunc("/health", healthHandler.Health)
	s.mux.HandleFunc("/status", healthHandler.Status)
	s.mux.HandleFunc("/version", healthHandler.Version)

	// Address endpoints
	if s.deps.Service != nil {
		addressHandler := handlers.NewAddressHandler(s.deps.Service, s.config.Suggestions)
		s.mux.HandleFunc(PathFormat, addressHandler.Format)
		s.mux.HandleFunc(PathDetails, addressHandler.Details)
		s.mux.HandleFunc(PathExtendedDetails, addressHandler.ExtendedDetails)
		s.mux.HandleFunc(PathSuggestions, addressHandler.Suggestions)
		s.mux.HandleFunc(PathFormattedSuggestions, addressHandler.FormattedSuggestions)
		s.mux.HandleFunc(PathGeoSuggestions, addressHandler.GeoSuggestions)
	}

	// Management endpoints
	s.mux.HandleFunc("/api/providers", providerHandler.ListProviders)
	s.mux.HandleFunc("/api/metrics", metricsHandler.GetMetrics)
	s.mux.HandleFunc("/api/metrics/system", metricsHandler.GetSystemMetrics)
	s.mux.HandleFunc("/api/metrics/providers/", metricsHandler.GetProviderMetrics)
	s.mux.HandleFunc("/api/gate", gateHandler.Gate)

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, r, backendtypes.ErrCodeNotFound, "no route for "+r.URL.Path, http.StatusNotFound)
	})
}

// Handler returns the routes wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.mux)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// Start starts the HTTP server and begins listening for requests
func (s *Server) Start() error {
	addr := s.Addr()

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		ErrorLog:          s.deps.Logger.Std(),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.deps.Logger.Infof("Starting server on %s (version: %s)", addr, s.config.Server.Version)
	if s.deps.Registry != nil {
		regs := s.deps.Registry.Registrations()
		s.deps.Logger.Infof("Registered %d provider(s)", len(regs))
		for _, reg := range regs {
			s.deps.Logger.Infof("  - %s (%s, priority %d)", reg.Provider.Name(), reg.Provider.Type(), reg.Priority)
		}
	}

	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.deps.Logger.Infof("Shutting down server...")

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	s.deps.Logger.Infof("Server shutdown complete")
	return nil
}

// applyMiddleware builds the middleware chain and applies it to the handler
// Middleware is applied in reverse order (last applied runs first)
func (s *Server) applyMiddleware(h http.Handler) http.Handler {
	// Execution order: Recovery -> Logging -> RequestID -> CORS -> Auth -> RateLimit -> Handler

	if s.limit != nil {
		h = middleware.RateLimit(s.limit)(h)
	}

	if s.config.Auth.Enabled {
		h = middleware.Auth(middleware.AuthConfig{
			Enabled:     true,
			APIPassword: s.config.Auth.APIPassword,
			APIKeyEnv:   s.config.Auth.APIKeyEnv,
			PublicPaths: s.config.Auth.PublicPaths,
		})(h)
	}

	if s.config.CORS.Enabled {
		h = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   s.config.CORS.AllowedMethods,
			AllowedHeaders:   s.config.CORS.AllowedHeaders,
			AllowCredentials: s.config.CORS.AllowCredentials,
		})(h)
	}

	h = middleware.RequestID(h)
	h = middleware.Logging(s.deps.Logger)(h)
	h = middleware.Recovery(s.deps.Logger)(h)

	return h
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() backendtypes.BackendConfig {
	return s.config
}

// ListenAndServeWithGracefulShutdown starts the server and handles graceful shutdown
// once shutdownSignal is closed or receives a value.
func (s *Server) ListenAndServeWithGracefulShutdown(shutdownSignal <-chan struct{}) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-shutdownSignal:
		timeout := s.config.Server.ShutdownTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return s.Shutdown(ctx)
	}
}
