package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pigeonworks-llc/buchhaltung/pkg/rules"
)

// Status is the outcome of processing one receipt.
type Status string

const (
	StatusRenamed   Status = "renamed"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// TextExtractor extracts the full text of a PDF file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Recorder receives every per-file result, e.g. to keep a rename history.
type Recorder interface {
	Record(result FileResult) error
}

// FileResult represents the result of processing one receipt.
type FileResult struct {
	Source string
	Target string
	Vendor string
	Date   time.Time // zero when no date was found
	Status Status
	Reason string
	Err    error
}

// Summary collects the results of one directory run in processing order.
type Summary struct {
	Dir       string
	DryRun    bool
	Results   []FileResult
	Renamed   int
	Unchanged int
	Skipped   int
	Failed    int
}

// Add appends result and updates the counters.
func (s *Summary) Add(result FileResult) {
	s.Results = append(s.Results, result)
	switch result.Status {
	case StatusRenamed:
		s.Renamed++
	case StatusUnchanged:
		s.Unchanged++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Options configures a Renamer.
type Options struct {
	Extractor TextExtractor
	Rules     rules.Rules
	Recorder  Recorder
	DryRun    bool
	Logger    *slog.Logger
}

// Renamer renames receipt PDFs in a directory one after another.
type Renamer struct {
	extractor TextExtractor
	vendors   []string
	keywords  []string
	recorder  Recorder
	dryRun    bool
	logger    *slog.Logger
}

// New creates a new Renamer.
func New(opts Options) *Renamer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renamer{
		extractor: opts.Extractor,
		vendors:   opts.Rules.Vendors(),
		keywords:  opts.Rules.DateKeywords(),
		recorder:  opts.Recorder,
		dryRun:    opts.DryRun,
		logger:    logger,
	}
}

// RenameDir processes every .pdf file directly inside dir in name order.
// A failing file never stops the run; an error is returned only when dir
// cannot be listed or ctx is cancelled between files.
func (r *Renamer) RenameDir(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	state := newDirState(dir, entries, r.dryRun)
	summary := &Summary{Dir: dir, DryRun: r.dryRun}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if entry.IsDir() || !IsPDF(entry.Name()) {
			continue
		}

		result := r.process(dir, entry.Name(), state)
		r.record(result)
		summary.Add(result)
	}

	r.logger.Info("Directory processed",
		"dir", dir,
		"renamed", summary.Renamed,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"dry_run", r.dryRun,
	)

	return summary, nil
}

// RenameFile processes a single receipt in dir.
func (r *Renamer) RenameFile(ctx context.Context, dir, name string) FileResult {
	result := FileResult{Source: name}

	if err := ctx.Err(); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	if !IsPDF(name) {
		result.Status = StatusSkipped
		result.Reason = "not a PDF file"
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("failed to read directory %s: %w", dir, err)
		return result
	}

	state := newDirState(dir, entries, r.dryRun)
	if !state.names[name] {
		result.Status = StatusSkipped
		result.Reason = "file no longer exists"
		return result
	}

	result = r.process(dir, name, state)
	r.record(result)
	return result
}

func (r *Renamer) process(dir, name string, state *dirState) FileResult {
	result := FileResult{Source: name}
	path := filepath.Join(dir, name)

	text, err := r.extractor.ExtractText(path)
	if err != nil {
		result.Status = StatusSkipped
		result.Reason = "text extraction failed"
		result.Err = err
		r.logger.Warn("Failed to extract text", "file", name, "error", err)
		return result
	}

	vendor, haveVendor := MatchVendor(text, r.vendors)
	date, haveDate := ExtractDate(text, r.keywords)
	result.Vendor = vendor
	result.Date = date

	if !haveVendor || !haveDate {
		result.Status = StatusSkipped
		result.Reason = missingReason(haveVendor, haveDate)
		r.logger.Info("Skipping receipt", "file", name, "reason", result.Reason)
		return result
	}

	plan := PlanName(vendor, date, name, state.exists)
	result.Target = plan.Name

	if plan.Unchanged {
		result.Status = StatusUnchanged
		r.logger.Debug("Receipt already normalized", "file", name)
		return result
	}

	if !r.dryRun {
		if err := os.Rename(path, filepath.Join(dir, plan.Name)); err != nil {
			result.Status = StatusFailed
			result.Reason = "rename failed"
			result.Err = err
			r.logger.Error("Failed to rename receipt", "file", name, "target", plan.Name, "error", err)
			return result
		}
	}

	state.move(name, plan.Name)
	result.Status = StatusRenamed
	r.logger.Info("Renamed receipt", "file", name, "target", plan.Name, "vendor", vendor, "dry_run", r.dryRun)
	return result
}

func (r *Renamer) record(result FileResult) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(result); err != nil {
		r.logger.Warn("Failed to record result", "file", result.Source, "error", err)
	}
}

// IsPDF reports whether name has a .pdf extension in any letter case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// dirState tracks the names present in a directory while it is being renamed.
type dirState struct {
	dir    string
	names  map[string]bool
	dryRun bool
}

func newDirState(dir string, entries []os.DirEntry, dryRun bool) *dirState {
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	return &dirState{dir: dir, names: names, dryRun: dryRun}
}

func (s *dirState) exists(name string) bool {
	if s.names[name] {
		return true
	}
	if s.dryRun {
		return false
	}
	// files may have appeared since the directory was listed
	_, err := os.Lstat(filepath.Join(s.dir, name))
	return err == nil
}

func (s *dirState) move(from, to string) {
	delete(s.names, from)
	s.names[to] = true
}
