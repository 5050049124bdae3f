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
	Port     string
	LogLevel string
	Timezone string

	// Transaction store
	DataBackend      string
	DataDir          string
	TransactionsPath string
	SQLiteDBPath     string
	MongoURI         string
	MongoDatabase    string

	// AMQP (optional change notifications)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	SyncInterval time.Duration

	// Advisor
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AdvisorModel      string
	AdvisorMaxTokens  int
	AdvisorHistoryTTL time.Duration

	// Profile supplied by the identity provider
	Username string
	Email    string
}

var validBackends = []string{"memory", "file", "sqlite", "mongo"}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Local"),

		DataBackend:      getEnv("DATA_BACKEND", "memory"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		TransactionsPath: getEnv("TRANSACTIONS_PATH", "transactions.json"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/teddy.db"),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDatabase:    getEnv("MONGO_DATABASE", "teddy"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "teddy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_transactions"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		AdvisorModel:      getEnv("ADVISOR_MODEL", "gpt-4o-mini"),
		AdvisorMaxTokens:  getEnvInt("ADVISOR_MAX_TOKENS", 512),
		AdvisorHistoryTTL: getEnvDuration("ADVISOR_HISTORY_TTL", 2*time.Hour),

		Username: getEnv("TEDDY_USERNAME", ""),
		Email:    getEnv("TEDDY_EMAIL", ""),
	}

	return cfg
}

// Location resolves the timezone used for calendar arithmetic.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// MirrorEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if strings.TrimSpace(c.TransactionsPath) == "" {
		errors = append(errors, "transactions path cannot be empty")
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
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
	case "mongo":
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil || (u.Scheme != "mongodb" && u.Scheme != "mongodb+srv") {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI '%s': scheme must be 'mongodb' or 'mongodb+srv'", c.MongoURI))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MongoDB database name cannot be empty when using mongo backend")
		}
	}

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

	if c.MirrorEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the sheets mirror")
		}
		if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.OpenAIBaseURL != "" {
		if u, err := url.Parse(c.OpenAIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid OpenAI base URL '%s'", c.OpenAIBaseURL))
		}
	}
	if c.AdvisorModel == "" {
		errors = append(errors, "advisor model cannot be empty")
	}
	if c.AdvisorMaxTokens < 1 || c.AdvisorMaxTokens > 16384 {
		errors = append(errors, fmt.Sprintf("invalid advisor max tokens %d: must be between 1 and 16384", c.AdvisorMaxTokens))
	}
	if c.AdvisorHistoryTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid advisor history TTL %v: must be at least 1 minute", c.AdvisorHistoryTTL))
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
