// Package ledger holds the in-memory expense ledger and its derived queries.
//
// A Ledger owns the ordered list of expenses and the optional spending goal.
// All access is serialized by a single mutex, so each mutation is applied
// completely before any query can observe it. Queries are computed on every
// call; nothing is cached.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Ledger is the aggregate root for expenses and the goal.
type Ledger struct {
	mu      sync.Mutex
	entries []core.Expense
	goal    decimal.Decimal
	hasGoal bool

	listeners []Listener
	now       func() time.Time
	newID     func() string

	// Tickets are taken under mu; listeners run in ticket order.
	issued     uint64
	notifyMu   sync.Mutex
	notifyTurn *sync.Cond
	served     uint64
}

// New returns an empty ledger with no goal.
func New(listeners ...Listener) *Ledger {
	l := &Ledger{
		listeners: listeners,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	l.notifyTurn = sync.NewCond(&l.notifyMu)
	return l
}

// AddExpense appends a new entry and returns its index.
func (l *Ledger) AddExpense(description string, amount decimal.Decimal, category string) (int, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return -1, fmt.Errorf("add expense %q: %w", description, err)
	}

	l.mu.Lock()
	e := core.Expense{
		ID:          l.newID(),
		Description: description,
		Amount:      amount,
		Category:    category,
		CreatedAt:   l.now(),
	}
	index := len(l.entries)
	l.entries = append(l.entries, e)
	ev := core.Event{Kind: core.EventExpenseAdded, Index: index, Expense: e, At: e.CreatedAt}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return index, nil
}

// EditAmount replaces the amount of the entry at index, keeping its other
// fields. State is unchanged on error.
func (l *Ledger) EditAmount(index int, amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return fmt.Errorf("edit amount at %d: %w", index, err)
	}

	l.mu.Lock()
	ev, err := l.editLocked(index, amount)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return nil
}

// EditAmountByID is EditAmount addressed by the entry's stable ID.
func (l *Ledger) EditAmountByID(id string, amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return fmt.Errorf("edit amount of %s: %w", id, err)
	}

	l.mu.Lock()
	index := l.indexOfLocked(id)
	if index < 0 {
		l.mu.Unlock()
		return fmt.Errorf("edit amount of %s: %w", id, core.ErrIndexNotFound)
	}
	ev, err := l.editLocked(index, amount)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return nil
}

func (l *Ledger) editLocked(index int, amount decimal.Decimal) (core.Event, error) {
	if index < 0 || index >= len(l.entries) {
		return core.Event{}, fmt.Errorf("edit amount at %d: %w", index, core.ErrIndexNotFound)
	}
	l.entries[index].Amount = amount
	return core.Event{Kind: core.EventAmountEdited, Index: index, Expense: l.entries[index], At: l.now()}, nil
}

// RemoveExpense deletes the entry at index. Entries after it shift down by
// one, so indices held by callers beyond index become stale.
func (l *Ledger) RemoveExpense(index int) error {
	l.mu.Lock()
	ev, err := l.removeLocked(index)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return nil
}

// RemoveByID is RemoveExpense addressed by the entry's stable ID.
func (l *Ledger) RemoveByID(id string) error {
	l.mu.Lock()
	index := l.indexOfLocked(id)
	if index < 0 {
		l.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, core.ErrIndexNotFound)
	}
	ev, err := l.removeLocked(index)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return nil
}

func (l *Ledger) removeLocked(index int) (core.Event, error) {
	if index < 0 || index >= len(l.entries) {
		return core.Event{}, fmt.Errorf("remove at %d: %w", index, core.ErrIndexNotFound)
	}
	removed := l.entries[index]
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return core.Event{Kind: core.EventExpenseRemoved, Index: index, Expense: removed, At: l.now()}, nil
}

// SetGoal sets the spending goal. The previous goal is kept on error.
func (l *Ledger) SetGoal(goal decimal.Decimal) error {
	if err := core.ValidateGoal(goal); err != nil {
		return fmt.Errorf("set goal %s: %w", goal, err)
	}

	l.mu.Lock()
	l.goal = goal
	l.hasGoal = true
	ev := core.Event{Kind: core.EventGoalSet, Index: -1, Goal: goal, At: l.now()}
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.notify(ticket, ev)
	return nil
}

// Goal returns the current goal and whether one is set.
func (l *Ledger) Goal() (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.goal, l.hasGoal
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the entries in display order.
func (l *Ledger) Entries() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Expense, len(l.entries))
	copy(out, l.entries)
	return out
}

// IndexOf returns the current position of the entry with the given ID.
func (l *Ledger) IndexOf(id string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOfLocked(id)
	return i, i >= 0
}

func (l *Ledger) indexOfLocked(id string) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Total returns the sum of all amounts.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return totalOf(l.entries)
}

// CategoryTotals groups amounts by category in first-seen order.
func (l *Ledger) CategoryTotals() []core.CategoryTotal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return categoryTotalsOf(l.entries)
}

// GoalProgress reports the total against the goal.
func (l *Ledger) GoalProgress() core.GoalProgress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return progressOf(totalOf(l.entries), l.goal, l.hasGoal)
}

// Snapshot returns entries and all derived values computed under one lock.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]core.Expense, len(l.entries))
	copy(entries, l.entries)
	total := totalOf(entries)
	return core.Snapshot{
		Entries:    entries,
		Total:      total,
		Categories: categoryTotalsOf(entries),
		Progress:   progressOf(total, l.goal, l.hasGoal),
		TakenAt:    l.now(),
	}
}

func totalOf(entries []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

func categoryTotalsOf(entries []core.Expense) []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0)
	pos := make(map[string]int)
	for _, e := range entries {
		i, ok := pos[e.Category]
		if !ok {
			pos[e.Category] = len(out)
			out = append(out, core.CategoryTotal{Name: e.Category, Amount: e.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

func progressOf(total, goal decimal.Decimal, hasGoal bool) core.GoalProgress {
	if !hasGoal {
		return core.GoalProgress{Status: core.NoGoal}
	}
	p := core.GoalProgress{
		Status:     core.UnderGoal,
		Goal:       goal,
		Percentage: total.Mul(hundred).Div(goal),
	}
	if total.GreaterThan(goal) {
		p.Status = core.OverGoal
		p.Overage = total.Sub(goal)
	}
	return p
}
