package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"PORT",
		"DEBUG",
		"SESSION_SECRET",
		"OPERATIONS_SHEET",
		"SETTINGS_SHEET",
		"RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.SpreadsheetID)
	assert.Equal(t, DefaultCredentialsPath, cfg.CredentialsPath)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Equal(t, DefaultOperationsSheet, cfg.OperationsSheet)
	assert.Equal(t, DefaultSettingsSheet, cfg.SettingsSheet)
	assert.Equal(t, DefaultRateLimitRPS, cfg.RateLimitRPS)
	assert.Equal(t, DefaultRateLimitBurst, cfg.RateLimitBurst)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "  sheet-123 ")
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("SESSION_SECRET", "s3cr3t")
	t.Setenv("OPERATIONS_SHEET", "Ops")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, "Ops", cfg.OperationsSheet)
	assert.Equal(t, 3, cfg.RateLimitBurst)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DEBUG", "maybe"},
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_BURST", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestCheckSheets(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(creds, []byte("{}"), 0o600))

	t.Run("missing spreadsheet id", func(t *testing.T) {
		cfg := &Config{CredentialsPath: creds}
		err := cfg.CheckSheets()

		var cfgErr *Error
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Error(), "GOOGLE_SHEETS_SPREADSHEET_ID")
	})

	t.Run("missing credentials file", func(t *testing.T) {
		cfg := &Config{SpreadsheetID: "id", CredentialsPath: filepath.Join(dir, "nope.json")}
		err := cfg.CheckSheets()

		var cfgErr *Error
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Error(), "GOOGLE_APPLICATION_CREDENTIALS")
	})

	t.Run("ready", func(t *testing.T) {
		cfg := &Config{SpreadsheetID: "id", CredentialsPath: creds}
		assert.NoError(t, cfg.CheckSheets())
	})
}
