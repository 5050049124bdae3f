// Package cli provides the start-up and shutdown steps shared by
// cmd/teddy and cmd/teddy-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"teddy/internal/backend"
	"teddy/internal/config"
	"teddy/internal/log"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Location resolves the configured timezone or exits.
func Location(logger *log.Logger, cfg *config.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}
	return loc
}

// OpenBackend creates the configured document store.
// Returns the backend or exits the process on failure.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize document store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Document store ready", "backend", cfg.DataBackend)
	return result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown runs fn with a fresh context bounded by timeout.
func Shutdown(logger *log.Logger, timeout time.Duration, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error("Shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		return
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
}
