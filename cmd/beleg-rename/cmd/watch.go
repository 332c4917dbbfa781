package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/invoice"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pathutil"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pdftext"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const minSettleTick = 50 * time.Millisecond

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rename receipt PDFs as they arrive in the inbox",
	Long: `Rename the PDFs already in the inbox, then keep watching it and rename
every new PDF once it has not been written to for BELEGE_WATCH_SETTLE.

Stop with Ctrl+C. The whole session is recorded as one run.

Example:
  beleg-rename watch
  beleg-rename watch --dir ./scans`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&inboxDir, "dir", "", "Inbox directory (overrides BELEGE_INBOX_DIR)")
	watchCmd.Flags().StringVar(&rulesFile, "rules", "", "Rules YAML file (overrides BELEGE_RULES_FILE)")
	watchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no files are renamed)")
}

func runWatch(cmd *cobra.Command, args []string) {
	env := loadEnvironment(inboxDir, rulesFile)
	dir := env.inboxDir()
	r := env.loadRules()
	settle := env.cfg.Belege.WatchSettle

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

	watcher, err := fsnotify.NewWatcher()
	exitOnError(err, "failed to create watcher")
	defer watcher.Close()

	exitOnError(watcher.Add(dir), "failed to watch inbox")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := renamer.RenameDir(ctx, dir)
	if err != nil && ctx.Err() == nil {
		exitOnError(err, "failed to rename existing receipts")
	}
	if summary == nil {
		summary = &invoice.Summary{Dir: dir, DryRun: dryRun}
	}
	for _, result := range summary.Results {
		printResult(os.Stdout, result)
	}

	slog.Info("Watching inbox", "dir", dir, "settle", settle, "dry_run", dryRun)

	opts := watchOptions{paths: env.paths, settle: settle, dryRun: dryRun}
	if !dryRun {
		// the watcher saw the startup renames too
		for _, result := range summary.Results {
			if result.Status == invoice.StatusRenamed {
				opts.produced = append(opts.produced, result.Target)
			}
		}
	}

	err = watchInbox(ctx, watcher, opts, func(name string) invoice.FileResult {
		result := renamer.RenameFile(ctx, dir, name)
		summary.Add(result)
		printResult(os.Stdout, result)
		return result
	})

	recorder.finish(summary)
	printTotals(os.Stdout, summary)
	exitOnError(err, "watch failed")

	slog.Info("Watch stopped", "run_id", recorder.runID)
}

// watchOptions configures watchInbox.
type watchOptions struct {
	paths  *pathutil.PathResolver
	settle time.Duration
	dryRun bool
	// produced lists names renamed into the inbox before watching started
	produced []string
}

// watchInbox feeds PDFs created or written in the inbox to process once they
// have settled. It returns when ctx is cancelled or the watcher is closed.
func watchInbox(ctx context.Context, watcher *fsnotify.Watcher, opts watchOptions, process func(name string) invoice.FileResult) error {
	names := make(chan string, 100)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(names)
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				name := filepath.Base(event.Name)
				path, err := opts.paths.GetInboxPath(name)
				if err != nil || path != filepath.Clean(event.Name) || !invoice.IsPDF(name) {
					continue
				}
				slog.Debug("Inbox event", "file", event.Name, "op", event.Op.String())
				select {
				case names <- name:
				case <-gctx.Done():
					return nil
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("Watcher error", "error", err)
			}
		}
	})

	g.Go(func() error {
		queue := newSettleQueue(opts.settle)
		// names produced by our own renames; their create events are ignored once
		produced := make(map[string]bool)
		for _, name := range opts.produced {
			produced[name] = true
		}

		tick := opts.settle / 4
		if tick < minSettleTick {
			tick = minSettleTick
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case name, ok := <-names:
				if !ok {
					return nil
				}
				if produced[name] {
					delete(produced, name)
					continue
				}
				queue.add(name, time.Now())
			case now := <-ticker.C:
				for _, name := range queue.due(now) {
					if gctx.Err() != nil {
						return nil
					}
					result := process(name)
					if result.Status == invoice.StatusRenamed && !opts.dryRun {
						produced[result.Target] = true
					}
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}
	return nil
}

// settleQueue holds file names until no event has been seen for them for the settle delay.
type settleQueue struct {
	settle   time.Duration
	lastSeen map[string]time.Time
}

func newSettleQueue(settle time.Duration) *settleQueue {
	return &settleQueue{settle: settle, lastSeen: make(map[string]time.Time)}
}

func (q *settleQueue) add(name string, at time.Time) {
	q.lastSeen[name] = at
}

// due removes and returns the settled names in name order.
func (q *settleQueue) due(now time.Time) []string {
	var names []string
	for name, seen := range q.lastSeen {
		if now.Sub(seen) >= q.settle {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		delete(q.lastSeen, name)
	}
	return names
}
