package ledger

import (
	"log/slog"

	"expensetracker/internal/core"
)

// Listener is notified after every successful mutation. Calls happen on the
// mutating goroutine after the ledger lock is released, so a listener may
// query the ledger. Events arrive in the order the mutations were applied,
// even when mutations race. A listener must not mutate the ledger it is
// subscribed to. Rejected operations produce no notification.
type Listener interface {
	LedgerChanged(ev core.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev core.Event)

func (f ListenerFunc) LedgerChanged(ev core.Event) { f(ev) }

// Subscribe registers a listener. Listeners run in registration order.
func (l *Ledger) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, listener)
	l.mu.Unlock()
}

// ticketLocked reserves the next notification slot. Callers hold l.mu and
// must pass the ticket to notify.
func (l *Ledger) ticketLocked() uint64 {
	t := l.issued
	l.issued++
	return t
}

// notify waits until every earlier ticket has been served, then runs the
// listeners for ev.
func (l *Ledger) notify(ticket uint64, ev core.Event) {
	l.mu.Lock()
	listeners := make([]Listener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	l.notifyMu.Lock()
	for l.served != ticket {
		l.notifyTurn.Wait()
	}
	l.notifyMu.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Ledger listener panicked", "kind", string(ev.Kind), "panic", r)
				}
			}()
			listener.LedgerChanged(ev)
		}()
	}

	l.notifyMu.Lock()
	l.served++
	l.notifyTurn.Broadcast()
	l.notifyMu.Unlock()
}
