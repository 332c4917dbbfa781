// Package cmd provides CLI commands for beleg-rename.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pigeonworks-llc/buchhaltung/pkg/config"
	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pathutil"
	"github.com/pigeonworks-llc/buchhaltung/pkg/rules"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "beleg-rename",
	Short: "Rename receipt PDFs to vendor and invoice date",
	Long: `beleg-rename renames receipt and invoice PDFs in an inbox directory to
{Vendor}_{dd}_{mm}_{yy}.pdf, using the vendor name and invoice date found
in the PDF text.

It supports:
- Renaming a directory once or watching it for new PDFs
- Dry-run mode for checking the planned names
- Rename history in SQLite with undo of the last run

Example:
  beleg-rename rename --dir ~/belege/eingang
  beleg-rename rename --dry-run
  beleg-rename undo`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug || os.Getenv("DEBUG") == "true" {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// environment holds what every command needs after loading the configuration.
type environment struct {
	cfg   *config.Config
	paths *pathutil.PathResolver
}

// loadEnvironment loads the configuration and applies the --dir and --rules overrides.
func loadEnvironment(dirOverride, rulesOverride string) *environment {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if dirOverride != "" {
		cfg.Belege.InboxDir = dirOverride
	}
	if rulesOverride != "" {
		cfg.Belege.RulesFile = rulesOverride
	}

	if err := cfg.Validate([]string{"belege", "inboxDir"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	return &environment{
		cfg: cfg,
		paths: pathutil.New(pathutil.Config{
			InboxDir:     cfg.Belege.InboxDir,
			DatabasePath: cfg.Belege.DBPath,
			RulesFile:    cfg.Belege.RulesFile,
		}),
	}
}

// loadRules returns the configured rules, or the built-in ones without a rules file.
func (e *environment) loadRules() rules.Rules {
	r, err := rules.LoadOrDefault(e.paths.GetRulesFile())
	exitOnError(err, "failed to load rules")
	slog.Debug("Rules loaded", "file", e.paths.GetRulesFile(), "vendors", len(r.Vendors()), "date_keywords", len(r.DateKeywords()))
	return r
}

// inboxDir returns the inbox directory, failing when it does not exist.
func (e *environment) inboxDir() string {
	dir := e.paths.GetInboxDir()
	if !e.paths.IsDir(dir) {
		exitOnError(fmt.Errorf("%s is not a directory", dir), "invalid inbox directory")
	}
	return dir
}

// openDatabase opens the history database, creating its directory when needed.
func (e *environment) openDatabase() *db.Connection {
	dbPath := e.paths.GetDatabasePath()
	exitOnError(e.paths.EnsureParentDir(dbPath), "failed to create database directory")

	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	return conn
}
