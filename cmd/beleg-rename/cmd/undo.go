package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/invoice"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pathutil"
	"github.com/spf13/cobra"
)

// undoCmd represents the undo command.
var undoCmd = &cobra.Command{
	Use:   "undo [run-id]",
	Short: "Revert the renames of a run",
	Long: `Rename the files of a run back to their original names.

Without a run ID the last run that renamed files is reverted. Renames are
reverted newest first. A file is left alone when its original name has
been taken by another file in the meantime.

Example:
  beleg-rename undo
  beleg-rename undo 0b8f6f3e-6c1a-4d59-9a0f-0e7b1f2d6f51`,
	Args: cobra.MaximumNArgs(1),
	Run:  runUndo,
}

func runUndo(cmd *cobra.Command, args []string) {
	env := loadEnvironment("", "")

	conn := env.openDatabase()
	defer conn.Close()

	history := db.NewHistory(conn)

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		last, err := history.LastRunID()
		exitOnError(err, "failed to get last run")
		if last == "" {
			fmt.Println("Nothing to undo.")
			return
		}
		runID = last
	}

	run, err := history.GetRun(runID)
	exitOnError(err, "failed to get run")
	if run == nil {
		exitOnError(fmt.Errorf("run %s not found", runID), "cannot undo")
	}
	if run.DryRun {
		exitOnError(fmt.Errorf("run %s was a dry run", runID), "cannot undo")
	}

	renames, err := history.GetRenames(runID)
	exitOnError(err, "failed to get renames")
	if len(renames) == 0 {
		fmt.Printf("Nothing to undo for run %s.\n", runID)
		return
	}

	slog.Info("Undoing run", "run_id", runID, "dir", run.Dir, "renames", len(renames))

	runDir := pathutil.New(pathutil.Config{InboxDir: run.Dir})

	reverted, failed := 0, 0
	for _, rename := range renames {
		if err := checkRecordedNames(runDir, rename); err != nil {
			slog.Warn("Refusing to revert rename", "file", rename.Target, "original", rename.Source, "error", err)
			fmt.Printf("FAIL    %s -> %s: %v\n", rename.Target, rename.Source, err)
			failed++
			continue
		}
		if err := invoice.Revert(run.Dir, rename.Source, rename.Target); err != nil {
			slog.Warn("Failed to revert rename", "file", rename.Target, "original", rename.Source, "error", err)
			fmt.Printf("FAIL    %s -> %s: %v\n", rename.Target, rename.Source, err)
			failed++
			continue
		}
		if err := history.MarkUndone(rename.ID); err != nil {
			slog.Warn("Failed to mark rename undone", "file", rename.Source, "error", err)
		}
		fmt.Printf("OK      %s -> %s\n", rename.Target, rename.Source)
		reverted++
	}

	last, err := history.RewindLastRun()
	if err != nil {
		slog.Warn("Failed to update last run", "error", err)
	} else {
		slog.Debug("Last run updated", "run_id", last)
	}

	fmt.Println("\n=== Undo Summary ===")
	fmt.Printf("Reverted: %d\n", reverted)
	fmt.Printf("Failed:   %d\n", failed)
	fmt.Println()

	if failed > 0 {
		conn.Close()
		os.Exit(1)
	}
}

// checkRecordedNames rejects history rows whose names would leave the run's directory.
func checkRecordedNames(runDir *pathutil.PathResolver, rename db.ResultRecord) error {
	if _, err := runDir.GetInboxPath(rename.Source); err != nil {
		return err
	}
	if _, err := runDir.GetInboxPath(rename.Target); err != nil {
		return err
	}
	return nil
}
