package db

import (
	"database/sql"
	"fmt"
	"time"
)

// LastRunKey is the metadata key holding the ID of the last applied run.
const LastRunKey = "last_run_id"

// Run represents a rename run.
type Run struct {
	ID         string
	Dir        string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Renamed    int
	Unchanged  int
	Skipped    int
	Failed     int
}

// ResultRecord represents the stored outcome of one receipt.
type ResultRecord struct {
	ID          int64
	RunID       string
	Source      string
	Target      string
	Vendor      string
	InvoiceDate string // YYYY-MM-DD, empty when unknown
	Status      string
	Reason      string
	Error       string
	UndoneAt    sql.NullTime
}

// VendorCount is the number of renamed receipts of one vendor.
type VendorCount struct {
	Vendor string
	Count  int
}

// History manages the rename history.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// StartRun records the start of a run.
func (h *History) StartRun(runID, dir string, dryRun bool) error {
	_, err := h.conn.Exec(
		`INSERT INTO rename_runs (id, dir, dry_run) VALUES (?, ?, ?)`,
		runID, dir, dryRun,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// RecordResult stores the outcome of one receipt.
func (h *History) RecordResult(record ResultRecord) error {
	query := `
		INSERT INTO rename_results (run_id, source, target, vendor, invoice_date, status, reason, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.conn.Exec(query,
		record.RunID,
		record.Source,
		nullString(record.Target),
		nullString(record.Vendor),
		nullString(record.InvoiceDate),
		record.Status,
		nullString(record.Reason),
		nullString(record.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// FinishRun stores the final counts of a run. Applied runs become the last run
// used by undo.
func (h *History) FinishRun(run Run) error {
	return h.conn.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE rename_runs
			SET finished_at = CURRENT_TIMESTAMP, renamed = ?, unchanged = ?, skipped = ?, failed = ?
			WHERE id = ?
		`, run.Renamed, run.Unchanged, run.Skipped, run.Failed, run.ID)
		if err != nil {
			return fmt.Errorf("failed to finish run: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("run %s not found", run.ID)
		}

		if run.DryRun || run.Renamed == 0 {
			return nil
		}
		return setMetadata(tx, LastRunKey, run.ID)
	})
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (h *History) GetRun(runID string) (*Run, error) {
	query := `
		SELECT id, dir, dry_run, started_at, finished_at, renamed, unchanged, skipped, failed
		FROM rename_runs
		WHERE id = ?
	`

	var run Run
	err := h.conn.QueryRow(query, runID).Scan(
		&run.ID,
		&run.Dir,
		&run.DryRun,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Renamed,
		&run.Unchanged,
		&run.Skipped,
		&run.Failed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// LastRunID returns the ID of the last applied run, or "" when there is none.
func (h *History) LastRunID() (string, error) {
	return h.GetMetadata(LastRunKey)
}

// RewindLastRun points the last run at the newest finished applied run that
// still has renames to undo, or clears it when there is none. It returns the
// new last run ID.
func (h *History) RewindLastRun() (string, error) {
	query := `
		SELECT run.id
		FROM rename_runs run
		WHERE run.dry_run = 0 AND run.finished_at IS NOT NULL
		  AND EXISTS (
			SELECT 1 FROM rename_results res
			WHERE res.run_id = run.id AND res.status = 'renamed' AND res.undone_at IS NULL
		  )
		ORDER BY run.started_at DESC, run.rowid DESC
		LIMIT 1
	`

	var runID string
	err := h.conn.QueryRow(query).Scan(&runID)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to find previous run: %w", err)
	}

	if err := h.SetMetadata(LastRunKey, runID); err != nil {
		return "", err
	}
	return runID, nil
}

// GetRenames returns the renames of a run that have not been undone yet,
// newest first.
func (h *History) GetRenames(runID string) ([]ResultRecord, error) {
	query := `
		SELECT id, run_id, source, target, COALESCE(vendor, ''), COALESCE(invoice_date, ''), status
		FROM rename_results
		WHERE run_id = ? AND status = 'renamed' AND undone_at IS NULL
		ORDER BY id DESC
	`

	rows, err := h.conn.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get renames: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var record ResultRecord
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Source,
			&record.Target,
			&record.Vendor,
			&record.InvoiceDate,
			&record.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rename: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// MarkUndone flags a rename as reverted.
func (h *History) MarkUndone(resultID int64) error {
	result, err := h.conn.Exec(
		`UPDATE rename_results SET undone_at = CURRENT_TIMESTAMP WHERE id = ? AND undone_at IS NULL`,
		resultID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark undone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("result %d not found or already undone", resultID)
	}
	return nil
}

// VendorCounts returns the number of renamed receipts per vendor, most frequent first.
// Dry runs and undone renames are not counted.
func (h *History) VendorCounts() ([]VendorCount, error) {
	query := `
		SELECT res.vendor, COUNT(*) AS n
		FROM rename_results res
		JOIN rename_runs run ON run.id = res.run_id
		WHERE run.dry_run = 0 AND res.status = 'renamed' AND res.undone_at IS NULL
		GROUP BY res.vendor
		ORDER BY n DESC, res.vendor
	`

	rows, err := h.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor counts: %w", err)
	}
	defer rows.Close()

	var counts []VendorCount
	for rows.Next() {
		var c VendorCount
		if err := rows.Scan(&c.Vendor, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan vendor count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Stats represents rename statistics over all applied runs.
type Stats struct {
	TotalRuns    int
	TotalRenamed int
	TotalSkipped int
	TotalFailed  int
	TotalUndone  int
	LastRun      sql.NullString
}

// GetStats retrieves rename statistics.
func (h *History) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM rename_runs WHERE dry_run = 0`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	err = h.conn.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN res.status = 'renamed' AND res.undone_at IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.status = 'skipped' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.undone_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM rename_results res
		JOIN rename_runs run ON run.id = res.run_id
		WHERE run.dry_run = 0
	`).Scan(&stats.TotalRenamed, &stats.TotalSkipped, &stats.TotalFailed, &stats.TotalUndone)
	if err != nil {
		return nil, fmt.Errorf("failed to get result counts: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(started_at) FROM rename_runs WHERE dry_run = 0`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *History) GetMetadata(key string) (string, error) {
	var value string
	err := h.conn.QueryRow(`SELECT value FROM rename_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(key, value string) error {
	return setMetadata(h.conn, key, value)
}

// execer is implemented by *Connection and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setMetadata(e execer, key, value string) error {
	query := `
		INSERT INTO rename_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := e.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
