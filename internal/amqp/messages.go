package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// LedgerEventMessage is the wire form of one ledger mutation. Amounts travel
// as decimal strings.
type LedgerEventMessage struct {
	Kind        core.EventKind  `json:"kind"`
	EntryID     string          `json:"entry_id,omitempty"`
	Index       int             `json:"index"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Goal        decimal.Decimal `json:"goal"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewLedgerEventMessage(ev core.Event) *LedgerEventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		Kind:        ev.Kind,
		EntryID:     ev.Expense.ID,
		Index:       ev.Index,
		Description: ev.Expense.Description,
		Amount:      ev.Expense.Amount,
		Category:    ev.Expense.Category,
		Goal:        ev.Goal,
		Timestamp:   ts.UTC(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Event converts the message back into a domain event. Unknown kinds are
// rejected so a consumer never journals something it cannot interpret.
func (m *LedgerEventMessage) Event() (core.Event, error) {
	switch m.Kind {
	case core.EventExpenseAdded, core.EventAmountEdited, core.EventExpenseRemoved, core.EventGoalSet:
	default:
		return core.Event{}, fmt.Errorf("unknown event kind %q", m.Kind)
	}
	return core.Event{
		Kind:  m.Kind,
		Index: m.Index,
		Expense: core.Expense{
			ID:          m.EntryID,
			Description: m.Description,
			Amount:      m.Amount,
			Category:    m.Category,
		},
		Goal: m.Goal,
		At:   m.Timestamp,
	}, nil
}
