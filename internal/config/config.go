// Package config loads server settings from defaults, an optional YAML file,
// an optional .env file and WAREHOUSE_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Backup    BackupConfig    `yaml:"backup"`
	Events    EventsConfig    `yaml:"events"`
	Log       LogConfig       `yaml:"log"`
	Images    ImagesConfig    `yaml:"images"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// Timezone decides which calendar day "today" is on the dashboard.
	Timezone string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	// JWTSecret overrides the secret generated and stored in the database.
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	AdminEmail  string        `yaml:"admin_email"`
	AdminName   string        `yaml:"admin_name"`
}

type LedgerConfig struct {
	AllowNegativeStock bool `yaml:"allow_negative_stock"`
}

type RateLimitConfig struct {
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
	APIRequests   int           `yaml:"api_requests"`
	APIWindow     time.Duration `yaml:"api_window"`
}

type BackupConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Frequency string `yaml:"frequency"`
	Dir       string `yaml:"dir"`
	Keep      int    `yaml:"keep"`
}

type EventsConfig struct {
	// NATSURL enables event publishing when set.
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

type ImagesConfig struct {
	MaxDimension int `yaml:"max_dimension"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			Timezone:          "Local",
		},
		Database: DatabaseConfig{
			Path: "warehouse.db",
		},
		Auth: AuthConfig{
			TokenExpiry: 7 * 24 * time.Hour,
			AdminEmail:  "admin@warehouse.local",
			AdminName:   "Administrator",
		},
		Ledger: LedgerConfig{
			AllowNegativeStock: true,
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: 5,
			LoginWindow:   5 * time.Minute,
			APIRequests:   100,
			APIWindow:     time.Hour,
		},
		Backup: BackupConfig{
			Enabled:   false,
			Frequency: "daily",
			Dir:       "backups",
			Keep:      7,
		},
		Events: EventsConfig{
			Subject: "warehouse.transactions.recorded",
		},
		Log: LogConfig{
			Level: "info",
		},
		Images: ImagesConfig{
			MaxDimension: 1024,
		},
	}
}

// Load builds a Config. path names an optional YAML file; envFile an
// optional .env file whose values never override the real environment.
// A missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("WAREHOUSE_ADDR", &c.Server.Addr)
	str("WAREHOUSE_TIMEZONE", &c.Server.Timezone)
	str("WAREHOUSE_DB_PATH", &c.Database.Path)
	str("WAREHOUSE_JWT_SECRET", &c.Auth.JWTSecret)
	dur("WAREHOUSE_TOKEN_EXPIRY", &c.Auth.TokenExpiry)
	str("WAREHOUSE_ADMIN_EMAIL", &c.Auth.AdminEmail)
	str("WAREHOUSE_ADMIN_NAME", &c.Auth.AdminName)
	flag("WAREHOUSE_ALLOW_NEGATIVE_STOCK", &c.Ledger.AllowNegativeStock)
	num("WAREHOUSE_LOGIN_ATTEMPTS", &c.RateLimit.LoginAttempts)
	dur("WAREHOUSE_LOGIN_WINDOW", &c.RateLimit.LoginWindow)
	num("WAREHOUSE_API_REQUESTS", &c.RateLimit.APIRequests)
	dur("WAREHOUSE_API_WINDOW", &c.RateLimit.APIWindow)
	flag("WAREHOUSE_BACKUP_ENABLED", &c.Backup.Enabled)
	str("WAREHOUSE_BACKUP_FREQUENCY", &c.Backup.Frequency)
	str("WAREHOUSE_BACKUP_DIR", &c.Backup.Dir)
	num("WAREHOUSE_BACKUP_KEEP", &c.Backup.Keep)
	str("WAREHOUSE_NATS_URL", &c.Events.NATSURL)
	str("WAREHOUSE_NATS_SUBJECT", &c.Events.Subject)
	str("WAREHOUSE_LOG_PATH", &c.Log.Path)
	str("WAREHOUSE_LOG_LEVEL", &c.Log.Level)
	num("WAREHOUSE_IMAGE_MAX_DIMENSION", &c.Images.MaxDimension)

	return errors.Join(errs...)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is required")
	case c.Database.Path == "":
		return errors.New("database.path is required")
	case c.Auth.TokenExpiry <= 0:
		return errors.New("auth.token_expiry must be positive")
	case c.RateLimit.LoginAttempts < 0 || c.RateLimit.APIRequests < 0:
		return errors.New("rate_limit attempts must not be negative")
	case c.Images.MaxDimension < 0:
		return errors.New("images.max_dimension must not be negative")
	case c.Backup.Keep < 0:
		return errors.New("backup.keep must not be negative")
	}
	switch c.Backup.Frequency {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("backup.frequency must be daily, weekly or monthly, got %q", c.Backup.Frequency)
	}
	if c.Backup.Enabled && c.Backup.Dir == "" {
		return errors.New("backup.dir is required when backups are enabled")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured dashboard time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
