// Package sheets exports ledger snapshots to spreadsheets.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// SnapshotExporter writes a full snapshot somewhere outside the process and
// returns a reference to where it landed.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, s core.Snapshot) (ref string, err error)
}
