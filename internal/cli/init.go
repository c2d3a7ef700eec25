// Package cli holds the start-up steps shared by cmd/expense-tracker and
// cmd/journal-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(level, format string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Format = format
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and exits the process if it is
// invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenJournal opens the journal when JOURNAL_DB_PATH is set. It returns nil
// when the journal is disabled.
func OpenJournal(logger *applog.Logger, cfg *config.Config) (*storage.Journal, error) {
	if !cfg.JournalEnabled() {
		logger.Info("Journal disabled")
		return nil, nil
	}
	j, err := storage.OpenJournal(cfg.JournalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", cfg.JournalDBPath, err)
	}
	logger.WithComponent(applog.ComponentJournal).Info("Journal opened", "path", cfg.JournalDBPath)
	return j, nil
}

// ConnectAMQP dials the broker when AMQP_URL is set. It returns nil when
// publishing is disabled.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled")
		return nil, nil
	}
	c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	logger.WithComponent(applog.ComponentAMQP).Info("AMQP connected",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return c, nil
}

// NewSnapshotExporter builds the Google Sheets exporter, or returns nil when
// no spreadsheet is configured.
func NewSnapshotExporter(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.SnapshotExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled")
		return nil, nil
	}
	c, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	logger.WithComponent(applog.ComponentSheets).Info("Google Sheets export enabled",
		"sheet", cfg.GoogleSheetName,
		"interval", cfg.ExportInterval.String())
	return c, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
