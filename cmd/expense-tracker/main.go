package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/ledger"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
	"expensetracker/internal/sheets"
	"expensetracker/internal/view"
)

// sourceWeb tags journal rows written by the web process.
const sourceWeb = "web"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Expense tracker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	rec := metrics.New()

	var (
		journal   services.JournalWriter
		publisher services.EventPublisher
		exporter  sheets.SnapshotExporter
		checks    []apphttp.ReadinessCheck
	)

	j, err := cli.OpenJournal(logger, cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		journal = j
		checks = append(checks, apphttp.ReadinessCheck{Name: "journal", Check: j.Ping})
	}

	// A broker that is down at start-up only disables publishing.
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).Warn("AMQP unavailable, ledger events will not be published",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	e, err := cli.NewSnapshotExporter(ctx, logger, cfg)
	if err != nil {
		return err
	}
	if e != nil {
		exporter = e
	}

	l := ledger.New(rec)
	scheduler := services.NewExportScheduler(l, exporter, cfg.ExportInterval)
	l.Subscribe(services.NewEventRelay(journal, publisher, rec, sourceWeb))
	l.Subscribe(scheduler)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Ledger:             l,
		Palette:            view.NewPalette(cfg.PaletteSize),
		Exporter:           scheduler,
		Checks:             checks,
		Metrics:            rec,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ferr := scheduler.Flush(flushCtx); ferr != nil {
		logger.WithComponent(applog.ComponentSheets).Warn("Final export failed", applog.FieldError, ferr)
	}
	return err
}
