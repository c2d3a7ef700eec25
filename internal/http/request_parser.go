package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// HeaderHXPrompt carries the text a user typed into an hx-prompt dialog.
const HeaderHXPrompt = "HX-Prompt"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// AddExpenseForm is the body of POST /expenses. Description and category are
// free text; only their length is bounded.
type AddExpenseForm struct {
	Description string `validate:"max=200"`
	Amount      string `validate:"required,max=32"`
	Category    string `validate:"max=100"`
}

type EditAmountForm struct {
	Amount string `validate:"required,max=32"`
	ID     string `validate:"omitempty,uuid"`
}

type RemoveForm struct {
	ID string `validate:"omitempty,uuid"`
}

type GoalForm struct {
	Goal string `validate:"required,max=32"`
}

// ParseAddExpense reads and validates the add form, returning the parsed
// amount. Amount failures wrap core.ErrInvalidAmount.
func ParseAddExpense(r *http.Request) (AddExpenseForm, decimal.Decimal, error) {
	if err := r.ParseForm(); err != nil {
		return AddExpenseForm{}, decimal.Zero, fmt.Errorf("parse form: %w", err)
	}
	form := AddExpenseForm{
		Description: sanitizeInput(r.PostForm.Get("description")),
		Amount:      strings.TrimSpace(r.PostForm.Get("amount")),
		Category:    sanitizeInput(r.PostForm.Get("category")),
	}
	if err := formValidator().Struct(form); err != nil {
		return form, decimal.Zero, validationError(err)
	}
	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return form, decimal.Zero, fmt.Errorf("amount %q: %w", form.Amount, err)
	}
	return form, amount, nil
}

// ParseEditAmount reads the new amount from the HX-Prompt header, falling back
// to the amount form field.
func ParseEditAmount(r *http.Request) (EditAmountForm, decimal.Decimal, error) {
	if err := r.ParseForm(); err != nil {
		return EditAmountForm{}, decimal.Zero, fmt.Errorf("parse form: %w", err)
	}
	raw := r.Header.Get(HeaderHXPrompt)
	if strings.TrimSpace(raw) == "" {
		raw = r.Form.Get("amount")
	}
	form := EditAmountForm{
		Amount: strings.TrimSpace(raw),
		ID:     strings.TrimSpace(r.Form.Get("id")),
	}
	if err := formValidator().Struct(form); err != nil {
		return form, decimal.Zero, validationError(err)
	}
	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return form, decimal.Zero, fmt.Errorf("amount %q: %w", form.Amount, err)
	}
	return form, amount, nil
}

func ParseRemove(r *http.Request) (RemoveForm, error) {
	if err := r.ParseForm(); err != nil {
		return RemoveForm{}, fmt.Errorf("parse form: %w", err)
	}
	form := RemoveForm{ID: strings.TrimSpace(r.Form.Get("id"))}
	if err := formValidator().Struct(form); err != nil {
		return form, validationError(err)
	}
	return form, nil
}

// ParseGoal reads the goal form. Any failure wraps core.ErrInvalidGoal.
func ParseGoal(r *http.Request) (decimal.Decimal, error) {
	if err := r.ParseForm(); err != nil {
		return decimal.Zero, fmt.Errorf("parse form: %w", err)
	}
	form := GoalForm{Goal: strings.TrimSpace(r.PostForm.Get("goal"))}
	if err := formValidator().Struct(form); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", core.ErrInvalidGoal, validationError(err))
	}
	return core.ParseGoal(form.Goal)
}

// ErrInvalidForm marks a field that failed struct validation.
var ErrInvalidForm = errors.New("invalid form")

// validationError turns validator output into one readable error. A missing
// or oversized amount is reported as core.ErrInvalidAmount.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	parts := make([]string, 0, len(verrs))
	amountFailed := false
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		if fe.Field() == "Amount" {
			amountFailed = true
		}
	}
	msg := strings.Join(parts, ", ")
	if amountFailed {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidForm, msg)
}

// PathIndex reads the {index} path value as a non-negative integer. A run of
// digits too large for an int cannot name an entry, so it reports
// core.ErrIndexNotFound rather than a malformed request.
func PathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	i, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && isDigits(raw):
		return 0, fmt.Errorf("%w: index %s", core.ErrIndexNotFound, raw)
	case err != nil || i < 0:
		return 0, fmt.Errorf("%w: index %q", ErrInvalidForm, raw)
	}
	return i, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sanitizeInput trims whitespace and strips control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
