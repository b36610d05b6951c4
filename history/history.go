// Package history keeps an optional append-only SQLite log of runs and the
// model changes each run produced. It is an audit trail only: the differ
// never consults it, change detection stays strictly between the two most
// recent JSON snapshots.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/use-agent/modelwatch/models"
)

// DB wraps the SQLite connection. SQLite supports a single writer, so the
// pool is pinned to one connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates the run log at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: create tables: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

func (h *DB) createTables() error {
	schema := `
	-- One row per completed run.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		checked_at DATETIME NOT NULL,
		urls_scanned INTEGER NOT NULL,
		models_requested TEXT NOT NULL,
		first_run INTEGER NOT NULL,
		new_urls INTEGER NOT NULL,
		removed_urls INTEGER NOT NULL,
		changed_urls INTEGER NOT NULL
	);

	-- One row per model added to or removed from a URL during a run.
	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		model TEXT NOT NULL,
		change TEXT NOT NULL CHECK (change IN ('added', 'removed'))
	);

	CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id);
	CREATE INDEX IF NOT EXISTS idx_changes_model ON changes(model);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RecordRun appends one run and its per-model changes in a transaction.
func (h *DB) RecordRun(ctx context.Context, checkedAt time.Time, urlsScanned int, requested string, cs models.ChangeSet) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (checked_at, urls_scanned, models_requested, first_run, new_urls, removed_urls, changed_urls)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		checkedAt.UTC().Format(time.RFC3339), urlsScanned, requested,
		boolToInt(cs.FirstRun), len(cs.NewURLs), len(cs.RemovedURLs), len(cs.ModelChanges))
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: run id: %w", err)
	}

	for url, delta := range cs.ModelChanges {
		for _, name := range delta.Added {
			if err := insertChange(ctx, tx, runID, url, name, "added"); err != nil {
				return err
			}
		}
		for _, name := range delta.Removed {
			if err := insertChange(ctx, tx, runID, url, name, "removed"); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

func insertChange(ctx context.Context, tx *sql.Tx, runID int64, url, model, change string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO changes (run_id, url, model, change) VALUES (?, ?, ?, ?)`,
		runID, url, model, change); err != nil {
		return fmt.Errorf("history: insert change: %w", err)
	}
	return nil
}

// RunCount returns the number of recorded runs.
func (h *DB) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count runs: %w", err)
	}
	return n, nil
}

// ChangesForModel returns the URLs where the model was ever added or
// removed, most recent first.
func (h *DB) ChangesForModel(ctx context.Context, model string) ([]Change, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT c.url, c.change, r.checked_at
		 FROM changes c JOIN runs r ON r.id = c.run_id
		 WHERE c.model = ? ORDER BY r.id DESC`, model)
	if err != nil {
		return nil, fmt.Errorf("history: query changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		var ts string
		if err := rows.Scan(&c.URL, &c.Change, &ts); err != nil {
			return nil, fmt.Errorf("history: scan change: %w", err)
		}
		c.CheckedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Change is one historical add/remove event for a model at a URL.
type Change struct {
	URL       string
	Change    string
	CheckedAt time.Time
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
