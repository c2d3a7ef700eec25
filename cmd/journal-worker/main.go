package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/worker"
)

const statsInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(applog.ComponentWorker)

	if !cfg.AMQPEnabled() || !cfg.JournalEnabled() {
		logger.Error("Journal worker needs AMQP_URL and JOURNAL_DB_PATH",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Journal worker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Journal worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	journal, err := cli.OpenJournal(logger, cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	client, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewJournalWorker(journal, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
		err := client.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st := w.Stats()
				total, err := journal.Count(gctx)
				if err != nil {
					logger.Warn("Journal count failed", applog.FieldError, err)
					continue
				}
				args := []any{
					"appended", st.Appended,
					"skipped", st.Skipped,
					"failed", st.Failed,
					"journal_rows", total,
				}
				if recent, err := journal.Recent(gctx, 1); err == nil && len(recent) > 0 {
					args = append(args, "last_kind", recent[0].Kind, "last_at", recent[0].OccurredAt)
				}
				logger.Info("Journal worker stats", args...)
			}
		}
	})
	return g.Wait()
}
