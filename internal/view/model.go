// Package view turns ledger snapshots into the values the HTML templates
// render.
package view

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

const (
	ColorOver  = "red"
	ColorUnder = "#4CAF50"
)

var hundred = decimal.NewFromInt(100)

type (
	Row struct {
		Index       int
		ID          string
		Description string
		Category    string
		Amount      string
		RawAmount   string
		Color       string
	}

	CategoryLine struct {
		Name   string
		Amount string
		Color  string
	}

	// Goal is nil on a Page when no goal is set.
	Goal struct {
		Amount  string
		Message string
		Color   string
		Over    bool
		Fill    string
	}

	// Segment is one entry's slice of the stacked progress bar. Height and
	// Bottom are percentages of the bar.
	Segment struct {
		Description string
		Category    string
		Color       string
		Height      string
		Bottom      string
	}

	Page struct {
		Rows       []Row
		Total      string
		Categories []CategoryLine
		Goal       *Goal
		Segments   []Segment
		Legend     []CategoryLine
	}
)

// FormatMoney renders an amount as "$12.34".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Build renders a snapshot using palette for category colors.
func Build(s core.Snapshot, palette *Palette) Page {
	page := Page{
		Rows:       make([]Row, 0, len(s.Entries)),
		Total:      s.Total.StringFixed(2),
		Categories: make([]CategoryLine, 0, len(s.Categories)),
	}
	for i, e := range s.Entries {
		page.Rows = append(page.Rows, Row{
			Index:       i,
			ID:          e.ID,
			Description: e.Description,
			Category:    e.Category,
			Amount:      FormatMoney(e.Amount),
			RawAmount:   e.Amount.StringFixed(2),
			Color:       palette.Color(e.Category),
		})
	}
	for _, c := range s.Categories {
		page.Categories = append(page.Categories, CategoryLine{
			Name:   c.Name,
			Amount: FormatMoney(c.Amount),
			Color:  palette.Color(c.Name),
		})
	}

	page.Goal = goalView(s.Progress)
	if page.Goal != nil && s.Total.IsPositive() {
		page.Segments = segments(s.Entries, s.Progress.Goal, palette)
		page.Legend = page.Categories
	}
	return page
}

func goalView(p core.GoalProgress) *Goal {
	switch p.Status {
	case core.OverGoal:
		return &Goal{
			Amount:  FormatMoney(p.Goal),
			Message: "You are over your spending goal by " + FormatMoney(p.Overage) + "!",
			Color:   ColorOver,
			Over:    true,
			Fill:    "100",
		}
	case core.UnderGoal:
		return &Goal{
			Amount:  FormatMoney(p.Goal),
			Message: "You have used " + p.Percentage.StringFixed(2) + "% of your spending goal.",
			Color:   ColorUnder,
			Fill:    capped(p.Percentage).StringFixed(2),
		}
	default:
		return nil
	}
}

// segments stacks one bar per entry. Heights are clipped so the stack never
// runs past the top of the bar; entries that start above it are dropped.
func segments(entries []core.Expense, goal decimal.Decimal, palette *Palette) []Segment {
	out := make([]Segment, 0, len(entries))
	bottom := decimal.Zero
	for _, e := range entries {
		if bottom.GreaterThanOrEqual(hundred) {
			break
		}
		height := e.Amount.Mul(hundred).Div(goal)
		if bottom.Add(height).GreaterThan(hundred) {
			height = hundred.Sub(bottom)
		}
		if height.IsZero() {
			continue
		}
		out = append(out, Segment{
			Description: e.Description,
			Category:    e.Category,
			Color:       palette.Color(e.Category),
			Height:      height.StringFixed(2),
			Bottom:      bottom.StringFixed(2),
		})
		bottom = bottom.Add(height)
	}
	return out
}

func capped(pct decimal.Decimal) decimal.Decimal {
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}
