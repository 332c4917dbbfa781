package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/invoice"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pdftext"
	"github.com/spf13/cobra"
)

var (
	inboxDir  string
	rulesFile string
	dryRun    bool
)

// renameCmd represents the rename command.
var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename all receipt PDFs in the inbox",
	Long: `Rename every .pdf file directly inside the inbox directory.

This command:
1. Extracts the text of each PDF
2. Finds the first configured vendor name in the text
3. Finds the invoice date (keyword lines first, then any date)
4. Renames the file to {Vendor}_{dd}_{mm}_{yy}.pdf, adding _1, _2, ... on collisions
5. Records the run in the rename history

Files without a vendor or date are skipped and reported.

Example:
  beleg-rename rename
  beleg-rename rename --dir ./scans --dry-run`,
	Run: runRename,
}

func init() {
	renameCmd.Flags().StringVar(&inboxDir, "dir", "", "Inbox directory (overrides BELEGE_INBOX_DIR)")
	renameCmd.Flags().StringVar(&rulesFile, "rules", "", "Rules YAML file (overrides BELEGE_RULES_FILE)")
	renameCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no files are renamed)")
}

func runRename(cmd *cobra.Command, args []string) {
	env := loadEnvironment(inboxDir, rulesFile)
	dir := env.inboxDir()
	r := env.loadRules()

	slog.Info("Starting rename", "dir", dir, "dry_run", dryRun)

	conn := env.openDatabase()
	defer conn.Close()

	recorder, err := startRun(db.NewHistory(conn), dir, dryRun)
	exitOnError(err, "failed to start run")

	renamer := invoice.New(invoice.Options{
		Extractor: pdftext.NewPDFCPUExtractor(slog.Default()),
		Rules:     r,
		Recorder:  recorder,
		DryRun:    dryRun,
		Logger:    slog.Default(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := renamer.RenameDir(ctx, dir)
	if summary != nil {
		recorder.finish(summary)
		printSummary(os.Stdout, summary)
	}
	exitOnError(err, "rename interrupted")

	slog.Info("Rename completed", "run_id", recorder.runID)

	if summary.Failed > 0 {
		conn.Close()
		os.Exit(1)
	}
}
