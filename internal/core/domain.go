package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Expense is a single recorded expenditure.
	Expense struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Category    string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidGoal   = errors.New("invalid goal")
	ErrIndexNotFound = errors.New("index not found")
)

// ValidateAmount rejects negative amounts. Zero is allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateGoal rejects goals that are not strictly positive.
func ValidateGoal(goal decimal.Decimal) error {
	if !goal.IsPositive() {
		return ErrInvalidGoal
	}
	return nil
}
