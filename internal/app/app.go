// Package app wires configuration into a running normalizer stack.
package app

import (
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/cecil-the-coder/address-provider-kit/pkg/config"
	"github.com/cecil-the-coder/address-provider-kit/pkg/dispatcher"
	"github.com/cecil-the-coder/address-provider-kit/pkg/factory"
	"github.com/cecil-the-coder/address-provider-kit/pkg/featuregate"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/metrics"
	"github.com/cecil-the-coder/address-provider-kit/pkg/normalizer"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
)

// App holds the components built from a Config
type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	Registry  *registry.Registry
	Collector *metrics.DefaultMetricsCollector
	Gate      *featuregate.Toggle
	// ServiceGate is what lookups consult: Gate, possibly overridden by enabled_env
	ServiceGate featuregate.Gate
	Dispatcher  *dispatcher.Dispatcher
	Service     *normalizer.Service
}

// NewLogger builds the process logger from the logging section. Colour is used only
// when configured and the terminal supports it.
func NewLogger(cfg *config.Config, w io.Writer) *logging.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.New(w, logging.Options{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Color:      cfg.Logging.Color && !color.NoColor,
		Timestamps: true,
	})
}

// New creates every enabled provider and assembles the dispatcher and service.
// A nil logger is built from cfg.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg, nil)
	}

	f := factory.NewProviderFactory()
	factory.RegisterDefaultProviders(f)

	reg, err := factory.BuildRegistry(f, cfg.Providers, logger)
	if err != nil {
		return nil, err
	}
	if reg.Len() == 0 {
		logger.Warnf("[app] no providers configured; every lookup will return an empty result")
	}

	collector := metrics.NewDefaultMetricsCollector()
	gate := featuregate.NewToggle(cfg.IsEnabled())
	serviceGate := cfg.ServiceGate(gate)
	d := dispatcher.New(reg,
		dispatcher.WithLogger(logger),
		dispatcher.WithMetricsCollector(collector),
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    reg,
		Collector:   collector,
		Gate:        gate,
		ServiceGate: serviceGate,
		Dispatcher:  d,
		Service:     normalizer.New(serviceGate, d),
	}, nil
}

// Close releases the metrics collector
func (a *App) Close() error {
	return a.Collector.Close()
}
