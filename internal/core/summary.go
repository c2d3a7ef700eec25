package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed amount of all entries sharing a category.
type CategoryTotal struct {
	Name   string
	Amount decimal.Decimal
}

// GoalStatus describes where the ledger total stands against the goal.
type GoalStatus int

const (
	NoGoal GoalStatus = iota
	UnderGoal
	OverGoal
)

func (s GoalStatus) String() string {
	switch s {
	case UnderGoal:
		return "under_goal"
	case OverGoal:
		return "over_goal"
	default:
		return "no_goal"
	}
}

// GoalProgress reports spending against the goal. Percentage is not capped;
// Overage is only set when Status is OverGoal.
type GoalProgress struct {
	Status     GoalStatus
	Goal       decimal.Decimal
	Percentage decimal.Decimal
	Overage    decimal.Decimal
}

// Snapshot is a consistent view of the ledger taken under a single lock.
type Snapshot struct {
	Entries    []Expense
	Total      decimal.Decimal
	Categories []CategoryTotal
	Progress   GoalProgress
	TakenAt    time.Time
}
