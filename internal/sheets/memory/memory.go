// Package memory is an in-process SnapshotExporter that keeps every export.
package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	exports [][][]any
}

var _ ports.SnapshotExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportSnapshot keeps the rendered rows and returns a synthetic reference.
func (e *Exporter) ExportSnapshot(_ context.Context, s core.Snapshot) (string, error) {
	rows := ports.SnapshotRows(s)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports = append(e.exports, rows)
	return fmt.Sprintf("mem:%d", len(e.exports)), nil
}

// Last returns the most recent export, or nil.
func (e *Exporter) Last() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.exports) == 0 {
		return nil
	}
	return e.exports[len(e.exports)-1]
}

func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exports)
}
