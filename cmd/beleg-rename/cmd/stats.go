package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display rename statistics",
	Long: `Display statistics from the rename history.

Shows:
- Total number of runs
- Renamed, skipped, failed and undone receipts
- Renamed receipts per vendor
- Last run

Dry runs are not counted.

Example:
  beleg-rename stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	env := loadEnvironment("", "")

	conn := env.openDatabase()
	defer conn.Close()

	history := db.NewHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	vendors, err := history.VendorCounts()
	exitOnError(err, "failed to get vendor counts")

	lastRunID, err := history.LastRunID()
	exitOnError(err, "failed to get last run")

	fmt.Println("\n=== Rename Statistics ===")
	fmt.Printf("Total runs:       %d\n", stats.TotalRuns)
	fmt.Printf("Renamed receipts: %d\n", stats.TotalRenamed)
	fmt.Printf("Skipped receipts: %d\n", stats.TotalSkipped)
	fmt.Printf("Failed receipts:  %d\n", stats.TotalFailed)
	fmt.Printf("Undone renames:   %d\n", stats.TotalUndone)

	if stats.LastRun.Valid {
		fmt.Printf("Last run:         %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:         (never)\n")
	}
	if lastRunID != "" {
		fmt.Printf("Last undoable:    %s\n", lastRunID)
	}

	if len(vendors) > 0 {
		fmt.Println("\n=== Receipts per Vendor ===")
		for _, v := range vendors {
			fmt.Printf("%-20s %d\n", v.Vendor, v.Count)
		}
	}

	fmt.Println()

	slog.Debug("Statistics displayed successfully")
}
