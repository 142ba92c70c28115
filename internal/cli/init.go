// Package cli holds the start-up steps shared by cmd/viaggi and
// cmd/viaggi-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"viaggi/internal/config"
	applog "viaggi/internal/log"
	"viaggi/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	c := applog.DefaultConfig()
	c.Component = component
	if cfg != nil {
		c.Level = applog.ParseLevel(cfg.LogLevel)
		c.Format = cfg.LogFormat
	}
	logger := applog.New(c)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitLocalStore opens the SQLite cache or exits the process on failure.
func InitLocalStore(logger *applog.Logger, dbPath string) *storage.LocalStore {
	local, err := storage.NewLocalStore(dbPath)
	if err != nil {
		logger.Error("Failed to initialize local store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return local
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
