// Package services wires ledger change notifications to the outside world.
package services

import (
	"context"
	"log/slog"
	"time"

	"expensetracker/internal/core"
)

type (
	// JournalWriter appends events to durable storage.
	JournalWriter interface {
		Append(ctx context.Context, ev core.Event, source string) error
	}

	// EventPublisher sends events to a broker.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, ev core.Event) error
	}

	// FailureRecorder is told about every event a sink could not take.
	FailureRecorder interface {
		SinkFailed(sink string)
	}
)

const (
	SinkJournal = "journal"
	SinkAMQP    = "amqp"
	SinkSheets  = "sheets"

	defaultRelayTimeout = 5 * time.Second
)

// EventRelay forwards every ledger event to the journal and then the broker.
// Sink failures are logged and counted; they never undo or fail the mutation
// that produced the event.
type EventRelay struct {
	journal   JournalWriter
	publisher EventPublisher
	failures  FailureRecorder
	source    string
	timeout   time.Duration
}

// NewEventRelay builds a relay. Any sink may be nil.
func NewEventRelay(journal JournalWriter, publisher EventPublisher, failures FailureRecorder, source string) *EventRelay {
	return &EventRelay{
		journal:   journal,
		publisher: publisher,
		failures:  failures,
		source:    source,
		timeout:   defaultRelayTimeout,
	}
}

func (r *EventRelay) LedgerChanged(ev core.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.Relay(ctx, ev)
}

// Relay delivers ev to each configured sink in turn.
func (r *EventRelay) Relay(ctx context.Context, ev core.Event) {
	if r.journal != nil {
		if err := r.journal.Append(ctx, ev, r.source); err != nil {
			r.fail(ctx, SinkJournal, ev, err)
		}
	}

	if r.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event", "kind", ev.Kind)
		return
	}
	if err := r.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		r.fail(ctx, SinkAMQP, ev, err)
	}
}

func (r *EventRelay) fail(ctx context.Context, sink string, ev core.Event, err error) {
	slog.ErrorContext(ctx, "Failed to relay ledger event",
		"sink", sink,
		"kind", ev.Kind,
		"entry_id", ev.Expense.ID,
		"error", err)
	if r.failures != nil {
		r.failures.SinkFailed(sink)
	}
}
