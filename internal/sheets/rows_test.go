package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestSnapshotRows(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	s := core.Snapshot{
		Entries: []core.Expense{
			{Description: "Coffee", Category: "Food", Amount: decimal.RequireFromString("3.5"), CreatedAt: at},
			{Description: "Bus", Category: "Transport", Amount: decimal.NewFromInt(2), CreatedAt: at},
		},
		Total: decimal.RequireFromString("5.5"),
		Categories: []core.CategoryTotal{
			{Name: "Food", Amount: decimal.RequireFromString("3.5")},
			{Name: "Transport", Amount: decimal.NewFromInt(2)},
		},
		Progress: core.GoalProgress{
			Status:  core.OverGoal,
			Goal:    decimal.NewFromInt(5),
			Overage: decimal.RequireFromString("0.5"),
		},
	}

	rows := SnapshotRows(s)
	// header + 2 entries + blank + total + 2 categories + goal
	if len(rows) != 8 {
		t.Fatalf("expected 8 rows, got %d: %v", len(rows), rows)
	}
	if rows[1][1] != "Coffee" || rows[1][3] != "3.50" || rows[1][4] != "2026-05-01T08:30:00Z" {
		t.Errorf("unexpected entry row %v", rows[1])
	}
	if rows[4][3] != "5.50" {
		t.Errorf("unexpected total row %v", rows[4])
	}
	if rows[6][2] != "Transport" || rows[6][3] != "2.00" {
		t.Errorf("unexpected category row %v", rows[6])
	}
	if rows[7][2] != "over_goal" || rows[7][4] != "over by 0.50" {
		t.Errorf("unexpected goal row %v", rows[7])
	}
}

func TestSnapshotRowsWithoutGoal(t *testing.T) {
	rows := SnapshotRows(core.Snapshot{})
	// header + blank + total
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2][3] != "0.00" {
		t.Errorf("expected zero total, got %v", rows[2])
	}
}
