package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/view"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 when templates failed to load or any dependency
// check fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", c.Name, applog.FieldError, err)
			continue
		}
		checks[c.Name] = "ok"
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", s.page())
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "ledger", s.page())
}

func (s *Server) page() view.Page {
	snap := s.ledger.Snapshot()
	s.metrics.ObserveSnapshot(snap)
	return view.Build(snap, s.palette)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

type (
	summaryEntry struct {
		Index       int             `json:"index"`
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
	}

	summaryCategory struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}

	summaryGoal struct {
		Status     string           `json:"status"`
		Goal       decimal.Decimal  `json:"goal"`
		Percentage decimal.Decimal  `json:"percentage"`
		Overage    *decimal.Decimal `json:"overage,omitempty"`
	}

	summaryResponse struct {
		Entries    []summaryEntry    `json:"entries"`
		Total      decimal.Decimal   `json:"total"`
		Categories []summaryCategory `json:"categories"`
		Goal       *summaryGoal      `json:"goal,omitempty"`
	}
)

func newSummary(s core.Snapshot) summaryResponse {
	out := summaryResponse{
		Entries:    make([]summaryEntry, 0, len(s.Entries)),
		Total:      s.Total,
		Categories: make([]summaryCategory, 0, len(s.Categories)),
	}
	for i, e := range s.Entries {
		out.Entries = append(out.Entries, summaryEntry{
			Index: i, ID: e.ID, Description: e.Description, Amount: e.Amount, Category: e.Category,
		})
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, summaryCategory{Name: c.Name, Amount: c.Amount})
	}
	if p := s.Progress; p.Status != core.NoGoal {
		g := &summaryGoal{Status: p.Status.String(), Goal: p.Goal, Percentage: p.Percentage.Round(2)}
		if p.Status == core.OverGoal {
			overage := p.Overage
			g.Overage = &overage
		}
		out.Goal = g
	}
	return out
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	s.metrics.ObserveSnapshot(snap)
	writeJSON(w, http.StatusOK, newSummary(snap))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
