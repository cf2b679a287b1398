// Package cli holds the start-up steps shared by the planner binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"planner/internal/backend"
	"planner/internal/config"
	plog "planner/internal/log"
	"planner/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger for component at the LOG_LEVEL
// threshold and installs it as the slog default.
func SetupLogger(component string) *plog.Logger {
	cfg := plog.DefaultConfig()
	cfg.Component = component
	level, err := plog.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Level = level

	logger := plog.New(cfg)
	plog.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid LOG_LEVEL, using info", plog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *plog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", plog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitLedger creates the configured backend and a LedgerService on top of
// it. Exits the process on failure. Call Cleanup on the returned result
// to release the backend.
func InitLedger(ctx context.Context, logger *plog.Logger, cfg *config.Config) (*services.LedgerService, *backend.BackendResult) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", plog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger.With(plog.FieldComponent, plog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", plog.FieldError, err, "type", bcfg.Type)
		os.Exit(1)
	}

	opts := append(result.LedgerOptions(),
		services.WithLocation(cfg.Location()),
		services.WithReportTTL(cfg.ReportCacheTTL),
	)
	return services.NewLedgerService(result.Store, opts...), result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
