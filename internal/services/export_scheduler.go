package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

// SnapshotSource is satisfied by *ledger.Ledger.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

var ErrExportDisabled = errors.New("snapshot export is not configured")

// ExportScheduler pushes ledger snapshots to a SnapshotExporter on demand and,
// when an interval is set, periodically whenever the ledger has changed since
// the last export.
type ExportScheduler struct {
	source   SnapshotSource
	exporter sheets.SnapshotExporter
	interval time.Duration

	dirty atomic.Bool

	mu      sync.Mutex
	lastRef string
	lastAt  time.Time
}

// NewExportScheduler returns a scheduler. A nil exporter disables exports; an
// interval of zero disables the periodic loop.
func NewExportScheduler(source SnapshotSource, exporter sheets.SnapshotExporter, interval time.Duration) *ExportScheduler {
	return &ExportScheduler{source: source, exporter: exporter, interval: interval}
}

func (s *ExportScheduler) Enabled() bool { return s.exporter != nil }

// LedgerChanged marks the ledger as needing a fresh export.
func (s *ExportScheduler) LedgerChanged(core.Event) {
	s.dirty.Store(true)
}

// ExportNow exports the current snapshot regardless of the dirty flag.
func (s *ExportScheduler) ExportNow(ctx context.Context) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}
	s.dirty.Store(false)
	snap := s.source.Snapshot()
	ref, err := s.exporter.ExportSnapshot(ctx, snap)
	if err != nil {
		s.dirty.Store(true)
		return "", fmt.Errorf("export snapshot: %w", err)
	}

	s.mu.Lock()
	s.lastRef, s.lastAt = ref, time.Now()
	s.mu.Unlock()
	slog.InfoContext(ctx, "Snapshot exported", "ref", ref, "entries", len(snap.Entries))
	return ref, nil
}

// Last reports the reference and time of the latest successful export.
func (s *ExportScheduler) Last() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRef, s.lastAt
}

// Run blocks until ctx is done, exporting on every tick where the ledger is
// dirty. It returns nil on cancellation.
func (s *ExportScheduler) Run(ctx context.Context) error {
	if s.exporter == nil || s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	slog.InfoContext(ctx, "Export scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ExportScheduler) tick(ctx context.Context) {
	if err := s.Flush(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
	}
}

// Flush exports only if the ledger changed since the last successful export.
func (s *ExportScheduler) Flush(ctx context.Context) error {
	if s.exporter == nil || !s.dirty.Load() {
		return nil
	}
	_, err := s.ExportNow(ctx)
	return err
}
