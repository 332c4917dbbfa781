package cmd

import (
	"fmt"
	"io"

	"github.com/pigeonworks-llc/buchhaltung/pkg/invoice"
)

// printResult writes one report line for a processed receipt.
func printResult(w io.Writer, result invoice.FileResult) {
	switch result.Status {
	case invoice.StatusRenamed:
		fmt.Fprintf(w, "OK      %s -> %s\n", result.Source, result.Target)
	case invoice.StatusUnchanged:
		fmt.Fprintf(w, "OK      %s (already named)\n", result.Source)
	case invoice.StatusSkipped:
		fmt.Fprintf(w, "SKIP    %s: %s\n", result.Source, describe(result))
	case invoice.StatusFailed:
		if result.Target != "" {
			fmt.Fprintf(w, "FAIL    %s -> %s: %s\n", result.Source, result.Target, describe(result))
		} else {
			fmt.Fprintf(w, "FAIL    %s: %s\n", result.Source, describe(result))
		}
	}
}

// printSummary writes the per-file report and the totals of a run.
func printSummary(w io.Writer, summary *invoice.Summary) {
	if summary.DryRun {
		fmt.Fprintln(w, "Dry run: no files were renamed.")
	}
	for _, result := range summary.Results {
		printResult(w, result)
	}
	printTotals(w, summary)
}

func printTotals(w io.Writer, summary *invoice.Summary) {
	fmt.Fprintln(w, "\n=== Summary ===")
	fmt.Fprintf(w, "Renamed:   %d\n", summary.Renamed)
	fmt.Fprintf(w, "Unchanged: %d\n", summary.Unchanged)
	fmt.Fprintf(w, "Skipped:   %d\n", summary.Skipped)
	fmt.Fprintf(w, "Failed:    %d\n", summary.Failed)
	fmt.Fprintln(w)
}

func describe(result invoice.FileResult) string {
	switch {
	case result.Reason != "" && result.Err != nil:
		return fmt.Sprintf("%s: %v", result.Reason, result.Err)
	case result.Err != nil:
		return result.Err.Error()
	default:
		return result.Reason
	}
}
