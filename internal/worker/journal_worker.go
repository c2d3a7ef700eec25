// Package worker consumes ledger events from the broker and writes them to
// the audit journal.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// SourceWorker tags journal rows written by this worker.
const SourceWorker = "worker"

type JournalAppender interface {
	Append(ctx context.Context, ev core.Event, source string) error
}

type Stats struct {
	Appended int64
	Skipped  int64
	Failed   int64
}

// JournalWorker appends every well-formed ledger event it receives. Appends
// are idempotent in the journal, so redelivered messages are harmless.
type JournalWorker struct {
	journal JournalAppender
	logger  *applog.Logger

	appended atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewJournalWorker(journal JournalAppender, logger *applog.Logger) *JournalWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &JournalWorker{journal: journal, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleLedgerEvent is an amqp consumer handler. Returning an error requeues
// the message; events that can never be journaled are acknowledged and
// skipped.
func (w *JournalWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	ev, err := msg.Event()
	if err != nil {
		w.skipped.Add(1)
		w.logger.LogFields(ctx, slog.LevelWarn, "Skipping unusable ledger event",
			applog.NewFields().WithError(err, applog.ErrorTypeValidation).WithOperation(applog.OpAppend))
		return nil
	}

	if err := w.journal.Append(ctx, ev, SourceWorker); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to journal ledger event",
			applog.FieldEventKind, string(ev.Kind),
			applog.FieldIndex, ev.Index,
			applog.FieldError, err)
		return fmt.Errorf("journal %s event: %w", ev.Kind, err)
	}

	w.appended.Add(1)
	w.logger.DebugContext(ctx, "Ledger event journaled",
		applog.FieldEventKind, string(ev.Kind),
		applog.FieldIndex, ev.Index,
		applog.FieldEntryID, ev.Expense.ID)
	return nil
}

func (w *JournalWorker) Stats() Stats {
	return Stats{
		Appended: w.appended.Load(),
		Skipped:  w.skipped.Load(),
		Failed:   w.failed.Load(),
	}
}
