// Package cli provides common CLI initialization utilities shared by the
// server, the workers and the ledgerbook command.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/config"
	"ledgerbook/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger installs the process logger described by cfg.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger, err := log.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		slog.Error("Logger setup failed", "error", err)
		os.Exit(1)
	}
	return logger
}

// Bootstrap runs the steps every binary starts with: .env, config, logger.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := LoadAndValidateConfig()
	return cfg, SetupLogger(cfg, component)
}

// BuildStack wires the backend described by cfg or exits the process.
func BuildStack(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.Stack {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	stack, err := backend.NewFactory(logger.Logger).Build(ctx, bcfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return stack
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Shutdown runs the cleanup steps in order, sharing one deadline. Every step
// runs even after a failure; the errors are joined.
func Shutdown(logger *log.Logger, timeout time.Duration, steps ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		logger.WarnContext(ctx, "Shutdown finished with errors", "error", err)
	} else {
		logger.InfoContext(ctx, "Shutdown complete")
	}
	return err
}
