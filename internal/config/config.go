package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	TelegramToken string
	OwnerID       int64

	// Google Sheets
	SheetName         string
	SpreadsheetID     string
	GoogleCredsJSON   string
	ServiceAccountKey string

	// Ledger
	LedgerBackend string
	WriteTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		OwnerID:       getEnvInt64("OWNER_ID", 0),

		SheetName:         getEnv("SHEET_NAME", "GastosSemanais"),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		GoogleCredsJSON:   getEnv("GOOGLE_CREDS_JSON", ""),
		ServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LedgerBackend: getEnv("LEDGER_BACKEND", "sheets"),
		WriteTimeout:  getEnvDuration("SHEETS_WRITE_TIMEOUT", 15*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.TelegramToken) == "" {
		errs = append(errs, "TELEGRAM_TOKEN is required")
	}
	if c.OwnerID <= 0 {
		errs = append(errs, "OWNER_ID is required and must be a positive user ID")
	}

	switch c.LedgerBackend {
	case "sheets":
		if strings.TrimSpace(c.SheetName) == "" && strings.TrimSpace(c.SpreadsheetID) == "" {
			errs = append(errs, "either SHEET_NAME or SPREADSHEET_ID must be set for the sheets backend")
		}
		hasJSON := strings.TrimSpace(c.GoogleCredsJSON) != ""
		hasFile := strings.TrimSpace(c.ServiceAccountKey) != ""
		hasADC := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != ""
		if !hasJSON && !hasFile && !hasADC {
			errs = append(errs, "either GOOGLE_CREDS_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS must be provided for the sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.ServiceAccountKey); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("service account file does not exist: %s", c.ServiceAccountKey))
			}
		}
	case "memory":
		// Nothing to validate.
	default:
		errs = append(errs, fmt.Sprintf("invalid ledger backend '%s': must be one of [sheets memory]", c.LedgerBackend))
	}

	if c.WriteTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid write timeout %v: must be at least 1 second", c.WriteTimeout))
	} else if c.WriteTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid write timeout %v: must be at most 5 minutes", c.WriteTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
