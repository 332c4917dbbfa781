// Package pathutil provides centralized path management for the receipt inbox and its history database.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for the receipt inbox, history database and rules file.
type PathResolver struct {
	inboxDir     string
	databasePath string
	rulesFile    string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// InboxDir is the directory holding incoming receipt PDFs (e.g., ~/buchhaltung/belege/eingang)
	InboxDir string
	// DatabasePath is the path to the SQLite database file for rename history
	DatabasePath string
	// RulesFile is an optional YAML file overriding vendor and keyword lists
	RulesFile string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {InboxDir}/.belege/history.db
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.InboxDir, ".belege", "history.db")
	}

	return &PathResolver{
		inboxDir:     config.InboxDir,
		databasePath: dbPath,
		rulesFile:    config.RulesFile,
	}
}

// GetInboxDir returns the receipt inbox directory.
func (p *PathResolver) GetInboxDir() string {
	return p.inboxDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetRulesFile returns the rules file path, or "" when the built-in rules apply.
func (p *PathResolver) GetRulesFile() string {
	return p.rulesFile
}

// GetInboxPath returns the path of a file directly inside the inbox.
// Names containing a path separator are rejected so a receipt can never be moved out of the inbox.
func (p *PathResolver) GetInboxPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid receipt file name: %q", name)
	}
	return filepath.Join(p.inboxDir, name), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// IsDir checks if a path is a directory.
func (p *PathResolver) IsDir(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
