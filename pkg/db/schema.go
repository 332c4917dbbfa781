// Package db stores the rename history in SQLite.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per rename or watch run
CREATE TABLE IF NOT EXISTS rename_runs (
    id TEXT PRIMARY KEY,               -- UUID
    dir TEXT NOT NULL,                 -- Processed directory
    dry_run INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP,
    renamed INTEGER NOT NULL DEFAULT 0,
    unchanged INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
);

-- One row per processed receipt
CREATE TABLE IF NOT EXISTS rename_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES rename_runs(id) ON DELETE CASCADE,
    source TEXT NOT NULL,              -- File name before the run
    target TEXT,                       -- Planned or applied file name
    vendor TEXT,
    invoice_date TEXT,                 -- YYYY-MM-DD
    status TEXT NOT NULL,              -- 'renamed', 'unchanged', 'skipped' or 'failed'
    reason TEXT,
    error TEXT,
    undone_at TIMESTAMP,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rename_results_run
    ON rename_results(run_id);

CREATE INDEX IF NOT EXISTS idx_rename_results_vendor
    ON rename_results(vendor);

-- Key-value metadata, e.g. the last run ID
CREATE TABLE IF NOT EXISTS rename_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
