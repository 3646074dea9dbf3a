package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Ledger.AllowNegativeStock)
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 100, cfg.RateLimit.APIRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.APIWindow)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "warehouse.yaml", `
server:
  addr: ":9090"
  timezone: "UTC"
database:
  path: /var/lib/warehouse/data.db
ledger:
  allow_negative_stock: false
rate_limit:
  login_window: 10m
backup:
  enabled: true
  frequency: weekly
  keep: 3
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/warehouse/data.db", cfg.Database.Path)
	assert.False(t, cfg.Ledger.AllowNegativeStock)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, "weekly", cfg.Backup.Frequency)
	assert.Equal(t, 3, cfg.Backup.Keep)
	// Unset keys keep their defaults.
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "warehouse.yaml", "server:\n  addr: \":9090\"\n")
	t.Setenv("WAREHOUSE_ADDR", ":7070")
	t.Setenv("WAREHOUSE_ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("WAREHOUSE_LOGIN_ATTEMPTS", "3")
	t.Setenv("WAREHOUSE_TOKEN_EXPIRY", "12h")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.False(t, cfg.Ledger.AllowNegativeStock)
	assert.Equal(t, 3, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenExpiry)
}

func TestEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "WAREHOUSE_DB_PATH=/tmp/from-dotenv.db\nWAREHOUSE_LOG_LEVEL=debug\n")
	// Real environment wins over the file.
	t.Setenv("WAREHOUSE_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("WAREHOUSE_DB_PATH") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err, "missing config file")

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"), "")
	assert.Error(t, err, "malformed yaml")

	t.Setenv("WAREHOUSE_BACKUP_KEEP", "many")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "WAREHOUSE_BACKUP_KEEP")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero expiry", func(c *Config) { c.Auth.TokenExpiry = 0 }},
		{"negative attempts", func(c *Config) { c.RateLimit.LoginAttempts = -1 }},
		{"bad frequency", func(c *Config) { c.Backup.Frequency = "hourly" }},
		{"enabled without dir", func(c *Config) { c.Backup.Enabled = true; c.Backup.Dir = "" }},
		{"bad timezone", func(c *Config) { c.Server.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
