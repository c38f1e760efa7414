package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"

	"moneyrider/internal/log"
)

// Backend names accepted by DATA_BACKEND
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Password schemes accepted by PASSWORD_SCHEME
const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

type Config struct {
	// Backend selection
	DataBackend string

	// JSON file backend
	AccountsFile string
	UsersDir     string

	// Database
	SQLiteDBPath string

	// Accounts
	PasswordScheme string

	// Ledger loading
	LedgerCorruptAsEmpty bool

	// Aggregation
	RangeCacheSize   int
	AuditConcurrency int

	// Display
	DisplayCurrency string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", BackendFile),

		AccountsFile: getEnv("ACCOUNTS_FILE", "accounts.json"),
		UsersDir:     getEnv("USERS_DIR", "users"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneyrider.db"),

		PasswordScheme: getEnv("PASSWORD_SCHEME", SchemePlain),

		LedgerCorruptAsEmpty: getEnvBool("LEDGER_CORRUPT_AS_EMPTY", false),

		RangeCacheSize:   getEnvInt("RANGE_CACHE_SIZE", 64),
		AuditConcurrency: getEnvInt("AUDIT_CONCURRENCY", 4),

		DisplayCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", money.PHP)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendFile, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate file backend paths
	if c.DataBackend == BackendFile {
		if c.AccountsFile == "" {
			errors = append(errors, "accounts file path cannot be empty when using file backend")
		}
		if c.UsersDir == "" {
			errors = append(errors, "users directory cannot be empty when using file backend")
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validSchemes := []string{SchemePlain, SchemeBcrypt}
	if !slices.Contains(validSchemes, c.PasswordScheme) {
		errors = append(errors, fmt.Sprintf("invalid password scheme '%s': must be one of %v", c.PasswordScheme, validSchemes))
	}

	if c.RangeCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid range cache size %d: must not be negative", c.RangeCacheSize))
	} else if c.RangeCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid range cache size %d: must be at most 10000", c.RangeCacheSize))
	}

	if c.AuditConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid audit concurrency %d: must be at least 1", c.AuditConcurrency))
	} else if c.AuditConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid audit concurrency %d: must be at most 64", c.AuditConcurrency))
	}

	if money.GetCurrency(c.DisplayCurrency) == nil {
		errors = append(errors, fmt.Sprintf("unknown display currency '%s'", c.DisplayCurrency))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
