package cmd

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/invoice"
)

// historyRecorder stores the results of one run in the rename history.
type historyRecorder struct {
	history *db.History
	runID   string
	dryRun  bool
}

// startRun opens a new run in the history.
func startRun(history *db.History, dir string, dryRun bool) (*historyRecorder, error) {
	runID := uuid.NewString()
	if err := history.StartRun(runID, dir, dryRun); err != nil {
		return nil, err
	}
	slog.Debug("Run started", "run_id", runID, "dir", dir, "dry_run", dryRun)
	return &historyRecorder{history: history, runID: runID, dryRun: dryRun}, nil
}

// Record implements invoice.Recorder.
func (r *historyRecorder) Record(result invoice.FileResult) error {
	return r.history.RecordResult(toRecord(r.runID, result))
}

// finish stores the final counts of the run.
func (r *historyRecorder) finish(summary *invoice.Summary) {
	run := db.Run{
		ID:        r.runID,
		DryRun:    r.dryRun,
		Renamed:   summary.Renamed,
		Unchanged: summary.Unchanged,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	}
	if err := r.history.FinishRun(run); err != nil {
		slog.Warn("Failed to finish run", "run_id", r.runID, "error", err)
	}
}

func toRecord(runID string, result invoice.FileResult) db.ResultRecord {
	record := db.ResultRecord{
		RunID:  runID,
		Source: result.Source,
		Target: result.Target,
		Vendor: result.Vendor,
		Status: string(result.Status),
		Reason: result.Reason,
	}
	if !result.Date.IsZero() {
		record.InvoiceDate = result.Date.Format("2006-01-02")
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}
	return record
}
