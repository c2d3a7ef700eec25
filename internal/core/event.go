package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind identifies the mutation that produced an Event.
type EventKind string

const (
	EventExpenseAdded   EventKind = "expense_added"
	EventAmountEdited   EventKind = "amount_edited"
	EventExpenseRemoved EventKind = "expense_removed"
	EventGoalSet        EventKind = "goal_set"
)

// Event describes one successful ledger mutation. Index is the position the
// entry had when the mutation happened; it is -1 for goal changes.
type Event struct {
	Kind    EventKind
	Index   int
	Expense Expense
	Goal    decimal.Decimal
	At      time.Time
}
