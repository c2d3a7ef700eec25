package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/view"
)

const (
	msgInvalidAmount = "Please enter a valid amount of zero or more."
	msgInvalidGoal   = "Please enter a spending goal greater than zero."
	msgNotFound      = "That expense no longer exists. The list has been refreshed."
	msgBadRequest    = "Invalid request."
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	form, amount, err := ParseAddExpense(r)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpAdd, err)
		return
	}
	index, err := s.ledger.AddExpense(form.Description, amount, form.Category)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpAdd, err)
		return
	}

	f := applog.NewFields().
		WithOperation(applog.OpAdd).
		WithExpense(index, "", form.Description, amount.String(), form.Category)
	applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelInfo, "Expense added", f)

	msg := fmt.Sprintf("Added %s (%s)", form.Description, view.FormatMoney(amount))
	s.writeSuccess(w, r, SuccessResponse(msg).TriggerFormReset())
}

func (s *Server) handleEditAmount(w http.ResponseWriter, r *http.Request) {
	index, err := PathIndex(r)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpEdit, err)
		return
	}
	form, amount, err := ParseEditAmount(r)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpEdit, err)
		return
	}

	if form.ID != "" {
		err = s.ledger.EditAmountByID(form.ID, amount)
	} else {
		err = s.ledger.EditAmount(index, amount)
	}
	if err != nil {
		s.writeLedgerError(w, r, applog.OpEdit, err)
		return
	}

	f := applog.NewFields().
		WithOperation(applog.OpEdit).
		WithExpense(index, form.ID, "", amount.String(), "")
	applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelInfo, "Expense amount edited", f)

	s.writeSuccess(w, r, SuccessResponse("Amount updated to "+view.FormatMoney(amount)))
}

// handleRemoveExpense serves both DELETE /expenses/{index} and the POST
// fallback used by plain forms.
func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	index, err := PathIndex(r)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpRemove, err)
		return
	}
	form, err := ParseRemove(r)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpRemove, err)
		return
	}

	if form.ID != "" {
		err = s.ledger.RemoveByID(form.ID)
	} else {
		err = s.ledger.RemoveExpense(index)
	}
	if err != nil {
		s.writeLedgerError(w, r, applog.OpRemove, err)
		return
	}

	f := applog.NewFields().WithOperation(applog.OpRemove).WithExpense(index, form.ID, "", "", "")
	applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelInfo, "Expense removed", f)

	s.writeSuccess(w, r, SuccessResponse("Expense removed"))
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := ParseGoal(r)
	if err == nil {
		err = s.ledger.SetGoal(goal)
	}
	if err != nil {
		s.writeLedgerError(w, r, applog.OpSetGoal, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Spending goal set",
		applog.FieldOperation, applog.OpSetGoal,
		applog.FieldGoal, goal.String())

	s.writeSuccess(w, r, SuccessResponse("Spending goal set to "+view.FormatMoney(goal)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		ServiceUnavailableError("Export is not configured.").Write(w)
		return
	}
	ref, err := s.exporter.ExportNow(r.Context())
	switch {
	case errors.Is(err, services.ErrExportDisabled):
		ServiceUnavailableError("Export is not configured.").Write(w)
		return
	case err != nil:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Snapshot export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		s.metrics.SinkFailed(services.SinkSheets)
		ErrorResponse(http.StatusBadGateway, "Export failed. Please try again later.").Write(w)
		return
	}
	SuccessResponse("Exported to " + ref).Write(w)
}

// writeSuccess refreshes the gauges, then answers htmx with a flash message
// and a ledger:changed trigger, and plain form posts with a redirect home.
func (s *Server) writeSuccess(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	s.metrics.ObserveSnapshot(s.ledger.Snapshot())
	if !IsHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	b.TriggerLedgerChanged().Write(w)
}

// writeLedgerError maps domain errors onto status codes: 422 for bad input,
// 409 for a stale index or ID, 400 for malformed requests.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		s.metrics.Rejected(op, "invalid_amount")
		logger.InfoContext(ctx, "Rejected amount", applog.FieldOperation, op, applog.FieldError, err)
		UnprocessableEntityError(msgInvalidAmount).Write(w)
	case errors.Is(err, core.ErrInvalidGoal):
		s.metrics.Rejected(op, "invalid_goal")
		logger.InfoContext(ctx, "Rejected goal", applog.FieldOperation, op, applog.FieldError, err)
		UnprocessableEntityError(msgInvalidGoal).Write(w)
	case errors.Is(err, core.ErrIndexNotFound):
		s.metrics.Rejected(op, "index_not_found")
		logger.WarnContext(ctx, "Expense not found, client view is stale",
			applog.FieldOperation, op, applog.FieldError, err, applog.FieldPath, r.URL.Path)
		ConflictError(msgNotFound).Write(w)
	case errors.Is(err, ErrInvalidForm):
		s.metrics.Rejected(op, "invalid_form")
		logger.InfoContext(ctx, "Rejected form", applog.FieldOperation, op, applog.FieldError, err)
		BadRequestError(msgBadRequest).Write(w)
	default:
		s.metrics.Rejected(op, "bad_request")
		logger.WarnContext(ctx, "Malformed request", applog.FieldOperation, op, applog.FieldError, err)
		BadRequestError(msgBadRequest).Write(w)
	}
}
