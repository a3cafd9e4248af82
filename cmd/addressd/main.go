// Command addressd serves address normalization over HTTP.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cecil-the-coder/address-provider-kit/internal/app"
	"github.com/cecil-the-coder/address-provider-kit/pkg/backend"
	"github.com/cecil-the-coder/address-provider-kit/pkg/config"
)

func main() {
	configPath := flag.String("config", envOr("ADDRESSKIT_CONFIG", "config.yaml"), "Path to config file")
	envFile := flag.String("env-file", ".env", "Optional .env file loaded before the config")
	flag.Parse()

	// Load .env file for local development
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to initialize providers: %v", err)
	}
	defer a.Close()

	server := backend.NewServer(cfg.BackendConfig, backend.Dependencies{
		Service:     a.Service,
		Registry:    a.Registry,
		Collector:   a.Collector,
		Gate:        a.Gate,
		ServiceGate: a.ServiceGate,
		Logger:      a.Logger,
	})

	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.Logger.Infof("Received %s", sig)
		close(stop)
	}()

	if err := server.ListenAndServeWithGracefulShutdown(stop); err != nil {
		a.Logger.Errorf("Server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
