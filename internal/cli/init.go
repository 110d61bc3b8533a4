// Package cli provides common process initialization: env loading, config
// validation, logging setup, ledger backend selection, and shutdown wiring.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gastos/internal/config"
	"gastos/internal/ledger"
	lgoogle "gastos/internal/ledger/google"
	lmemory "gastos/internal/ledger/memory"
	"gastos/internal/log"
)

// SetupLogger initializes structured logging and sets it as the default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
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

// NewLedger builds the configured ledger backend.
// Returns the appender or exits the process on failure.
func NewLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) ledger.Appender {
	switch cfg.LedgerBackend {
	case "memory":
		logger.Warn("Using in-memory ledger, rows are lost on exit")
		return lmemory.New()
	default:
		client, err := lgoogle.New(ctx, lgoogle.Options{
			SheetName:       cfg.SheetName,
			SpreadsheetID:   cfg.SpreadsheetID,
			CredentialsJSON: cfg.GoogleCredsJSON,
			CredentialsFile: cfg.ServiceAccountKey,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger",
				log.FieldError, err, log.FieldSheet, cfg.SheetName)
			os.Exit(1)
		}
		logger.Info("Initialized Google Sheets ledger", log.FieldSheet, cfg.SheetName)
		return client
	}
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
