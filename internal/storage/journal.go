// Package storage keeps an append-only SQLite journal of ledger events. The
// journal is an audit trail; nothing reads it back into a ledger.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// Record is one journal row.
type Record struct {
	ID          int64
	Kind        core.EventKind
	EntryID     string
	Index       int
	Description string
	Category    string
	Amount      decimal.Decimal
	Goal        decimal.Decimal
	OccurredAt  time.Time
	Source      string
}

type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) and migrates the journal at dbPath.
func OpenJournal(dbPath string) (*Journal, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Append writes ev. Replaying an event already recorded (same kind, entry and
// time) is a no-op, so redelivered messages are safe to append again.
func (j *Journal) Append(ctx context.Context, ev core.Event, source string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ledger_events
			(kind, entry_id, entry_index, description, category, amount, goal, occurred_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Kind),
		ev.Expense.ID,
		ev.Index,
		ev.Expense.Description,
		ev.Expense.Category,
		ev.Expense.Amount.String(),
		ev.Goal.String(),
		ev.At.UTC().Format(timeLayout),
		source,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", ev.Kind, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, entry_id, entry_index, description, category, amount, goal, occurred_at, source
		FROM ledger_events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r            Record
			kind         string
			amount, goal string
			occurred     string
		)
		if err := rows.Scan(&r.ID, &kind, &r.EntryID, &r.Index, &r.Description, &r.Category, &amount, &goal, &occurred, &r.Source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Kind = core.EventKind(kind)
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("event %d amount: %w", r.ID, err)
		}
		if r.Goal, err = decimal.NewFromString(goal); err != nil {
			return nil, fmt.Errorf("event %d goal: %w", r.ID, err)
		}
		if r.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("event %d time: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
