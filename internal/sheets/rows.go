package sheets

import (
	"time"

	"expensetracker/internal/core"
)

// Header is the first row of every exported sheet.
var Header = []any{"#", "Description", "Category", "Amount", "Created"}

// SnapshotRows lays a snapshot out as spreadsheet rows: the entries table,
// a blank row, the total, one row per category and the goal status.
// Amounts are written as fixed two-decimal strings.
func SnapshotRows(s core.Snapshot) [][]any {
	rows := make([][]any, 0, len(s.Entries)+len(s.Categories)+5)
	rows = append(rows, Header)
	for i, e := range s.Entries {
		rows = append(rows, []any{i + 1, e.Description, e.Category, e.Amount.StringFixed(2), e.CreatedAt.UTC().Format(time.RFC3339)})
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"", "Total", "", s.Total.StringFixed(2)})
	for _, c := range s.Categories {
		rows = append(rows, []any{"", "Category", c.Name, c.Amount.StringFixed(2)})
	}
	switch s.Progress.Status {
	case core.OverGoal:
		rows = append(rows, []any{"", "Goal", s.Progress.Status.String(), s.Progress.Goal.StringFixed(2), "over by " + s.Progress.Overage.StringFixed(2)})
	case core.UnderGoal:
		rows = append(rows, []any{"", "Goal", s.Progress.Status.String(), s.Progress.Goal.StringFixed(2), s.Progress.Percentage.StringFixed(2) + "%"})
	}
	return rows
}
