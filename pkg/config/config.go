// Package config provides configuration management for the receipt renamer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultInboxDir is the receipt inbox used when BELEGE_INBOX_DIR is not set.
const DefaultInboxDir = "./belege/eingang"

// DefaultWatchSettle is how long the watcher waits after the last write event
// before a new PDF is processed.
const DefaultWatchSettle = 2 * time.Second

// Config represents the application configuration.
type Config struct {
	Belege BelegeConfig
	Debug  bool
}

// BelegeConfig represents receipt inbox configuration.
type BelegeConfig struct {
	InboxDir    string
	DBPath      string
	RulesFile   string
	WatchSettle time.Duration
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	settle, err := parseDurationEnv("BELEGE_WATCH_SETTLE", DefaultWatchSettle)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Belege: BelegeConfig{
			InboxDir:    getEnvOrDefault("BELEGE_INBOX_DIR", DefaultInboxDir),
			DBPath:      os.Getenv("BELEGE_DB_PATH"),
			RulesFile:   os.Getenv("BELEGE_RULES_FILE"),
			WatchSettle: settle,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "belege":
			switch path[1] {
			case "inboxDir":
				value = c.Belege.InboxDir
			case "dbPath":
				value = c.Belege.DBPath
			case "rulesFile":
				value = c.Belege.RulesFile
			case "watchSettle":
				if c.Belege.WatchSettle > 0 {
					value = "set"
				}
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a time.Duration from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("negative duration for %s: %s", key, value)
	}

	return parsed, nil
}
