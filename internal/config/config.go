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
	// Telegram
	TelegramToken       string
	TelegramDebug       bool
	TelegramPollTimeout int // seconds

	// Database
	SQLiteDBPath string

	// AMQP, optional for the bot
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Classifier
	ClassifierBackend             string
	ClassifierModelPath           string
	ClassifierConfidenceThreshold float64
	ClassifierWarnThreshold       float64

	// Behaviour
	DefaultCurrency    string
	RateLimitPerMinute int
	ReminderInterval   time.Duration
	ReportCacheTTL     time.Duration
	Timezone           string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		TelegramToken:       getEnv("TELEGRAM_TOKEN", ""),
		TelegramDebug:       getEnvBool("TELEGRAM_DEBUG", false),
		TelegramPollTimeout: getEnvInt("TELEGRAM_POLL_TIMEOUT", 60),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kopilka.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kopilka"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_export"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ClassifierBackend:             getEnv("CLASSIFIER_BACKEND", "logreg"),
		ClassifierModelPath:           getEnv("CLASSIFIER_MODEL_PATH", "./data/classifier.json"),
		ClassifierConfidenceThreshold: getEnvFloat("CLASSIFIER_CONFIDENCE_THRESHOLD", 0.3),
		ClassifierWarnThreshold:       getEnvFloat("CLASSIFIER_WARN_THRESHOLD", 0.7),

		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "тг"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		ReminderInterval:   getEnvDuration("REMINDER_INTERVAL", time.Minute),
		ReportCacheTTL:     getEnvDuration("REPORT_CACHE_TTL", 10*time.Minute),
		Timezone:           getEnv("TIMEZONE", "UTC"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	return joinErrors(c.commonErrors())
}

// ValidateBot checks the settings the Telegram bot needs.
func (c *Config) ValidateBot() error {
	errors := c.commonErrors()
	if strings.TrimSpace(c.TelegramToken) == "" {
		errors = append(errors, "TELEGRAM_TOKEN is required")
	}
	if c.TelegramPollTimeout < 1 || c.TelegramPollTimeout > 600 {
		errors = append(errors, fmt.Sprintf("invalid Telegram poll timeout %d: must be between 1 and 600 seconds", c.TelegramPollTimeout))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 1 hour", c.ReminderInterval))
	}
	return joinErrors(errors)
}

// ValidateExportWorker checks the settings the export worker needs.
func (c *Config) ValidateExportWorker() error {
	errors := c.commonErrors()
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required for the export worker")
	}

	hasFile := c.GoogleServiceAccountFile != ""
	hasJSON := c.GoogleServiceAccountJSON != ""
	if !hasFile && !hasJSON {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the export worker")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return joinErrors(errors)
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) commonErrors() []string {
	var errors []string

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

	validBackends := []string{"logreg", "bayes"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ClassifierBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid classifier backend '%s': must be one of %v", c.ClassifierBackend, validBackends))
	}
	if c.ClassifierConfidenceThreshold <= 0 || c.ClassifierConfidenceThreshold > 1 {
		errors = append(errors, fmt.Sprintf("invalid classifier confidence threshold %v: must be in (0, 1]", c.ClassifierConfidenceThreshold))
	}
	if c.ClassifierWarnThreshold < 0 || c.ClassifierWarnThreshold > 1 {
		errors = append(errors, fmt.Sprintf("invalid classifier warn threshold %v: must be in [0, 1]", c.ClassifierWarnThreshold))
	}

	if strings.TrimSpace(c.DefaultCurrency) == "" {
		errors = append(errors, "default currency cannot be empty")
	}
	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return errors
}

func joinErrors(errors []string) error {
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
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
