package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultCredentialsPath = "credentials.json"
	DefaultPort            = "8000"
	DefaultSessionSecret   = "change-this-secret"
	DefaultOperationsSheet = "Операции"
	DefaultSettingsSheet   = "Настройка"
	DefaultRateLimitRPS    = 5.0
	DefaultRateLimitBurst  = 20
)

// Config is built once at process start and passed by pointer to the components that need it.
type Config struct {
	SpreadsheetID   string
	CredentialsPath string
	Port            string
	Debug           bool
	SessionSecret   string

	OperationsSheet string
	SettingsSheet   string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Error reports a configuration problem. It is never retried and its text is shown
// to the user as is.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// Load reads a .env file if one exists and then builds the configuration from the environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Load: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	debug, err := getEnvAsBool("DEBUG", false)
	if err != nil {
		return nil, err
	}
	rps, err := getEnvAsFloat("RATE_LIMIT_RPS", DefaultRateLimitRPS)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvAsInt("RATE_LIMIT_BURST", DefaultRateLimitBurst)
	if err != nil {
		return nil, err
	}

	return &Config{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")),
		CredentialsPath: getEnv("GOOGLE_APPLICATION_CREDENTIALS", DefaultCredentialsPath),
		Port:            getEnv("PORT", DefaultPort),
		Debug:           debug,
		SessionSecret:   getEnv("SESSION_SECRET", DefaultSessionSecret),
		OperationsSheet: getEnv("OPERATIONS_SHEET", DefaultOperationsSheet),
		SettingsSheet:   getEnv("SETTINGS_SHEET", DefaultSettingsSheet),
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
	}, nil
}

// UsesDefaultSecret reports whether the session secret was left at its insecure default.
func (c *Config) UsesDefaultSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

// CheckSheets verifies that the spreadsheet can be reached at all: an identifier is set
// and the service account file exists.
func (c *Config) CheckSheets() error {
	if c.SpreadsheetID == "" {
		return &Error{Msg: "Не задан GOOGLE_SHEETS_SPREADSHEET_ID."}
	}
	if _, err := os.Stat(c.CredentialsPath); err != nil {
		return &Error{Msg: "Не найден файл сервисного аккаунта. Укажите путь в GOOGLE_APPLICATION_CREDENTIALS."}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
