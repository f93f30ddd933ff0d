package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Filesystem
	ExportDir   string
	DownloadDir string

	// Update feed
	AppVersion        string
	FeedProvider      string
	FeedOwner         string
	FeedRepo          string
	AutoDownload      bool
	StartupCheckDelay time.Duration

	// AMQP (optional, empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger (optional)
	GoogleSpreadsheetID      string
	GoogleLedgerSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/btwbuddy.db"),

		ExportDir:   getEnv("EXPORT_DIR", "./export"),
		DownloadDir: getEnv("DOWNLOAD_DIR", "./data/updates"),

		AppVersion:        getEnv("APP_VERSION", "0.0.0"),
		FeedProvider:      getEnv("UPDATE_FEED_PROVIDER", "github"),
		FeedOwner:         getEnv("UPDATE_FEED_OWNER", ""),
		FeedRepo:          getEnv("UPDATE_FEED_REPO", ""),
		AutoDownload:      getEnvBool("UPDATE_AUTO_DOWNLOAD", true),
		StartupCheckDelay: getEnvDuration("UPDATE_STARTUP_DELAY", 3*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "btwbuddy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "btwbuddy_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLedgerSheetName:    getEnv("GOOGLE_LEDGER_SHEET_NAME", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}

	return cfg
}

// UpdatesEnabled reports whether a release feed is configured.
func (c *Config) UpdatesEnabled() bool {
	return c.FeedOwner != "" && c.FeedRepo != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate update feed configuration
	if c.FeedProvider != "github" {
		errors = append(errors, fmt.Sprintf("invalid update feed provider '%s': must be 'github'", c.FeedProvider))
	}
	if c.FeedOwner != "" && c.FeedRepo == "" {
		errors = append(errors, "update feed repo cannot be empty when an owner is configured")
	}
	if c.FeedRepo != "" && c.FeedOwner == "" {
		errors = append(errors, "update feed owner cannot be empty when a repo is configured")
	}
	if c.StartupCheckDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid startup check delay %v: must not be negative", c.StartupCheckDelay))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets ledger configuration if a spreadsheet is set
	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets ledger")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
