package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Analytics   AnalyticsConfig `toml:"analytics"`
	Refresh     RefreshConfig   `toml:"refresh"`
	Sessions    SessionsConfig  `toml:"sessions"`
	Log         LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type AnalyticsConfig struct {
	BaseURL   string   `toml:"base_url"`
	Timeout   Duration `toml:"timeout"`
	RateLimit int      `toml:"rate_limit"`
}

type RefreshConfig struct {
	Period       Duration `toml:"period"`
	BannerPeriod Duration `toml:"banner_period"`
}

// SessionsConfig bounds how long an abandoned browser session keeps its
// timers running.
type SessionsConfig struct {
	IdleTTL Duration `toml:"idle_ttl"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Duration reads "5m" style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultConfig() Config {
	return Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 3009,
		},
		Analytics: AnalyticsConfig{
			BaseURL:   "http://localhost:5000/api",
			Timeout:   Duration{30 * time.Second},
			RateLimit: 10,
		},
		Refresh: RefreshConfig{
			Period:       Duration{5 * time.Minute},
			BannerPeriod: Duration{time.Minute},
		},
		Sessions: SessionsConfig{
			IdleTTL: Duration{10 * time.Minute},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigFile picks the file for the current QUANTDASH_ENV unless
// QUANTDASH_CONFIG names one explicitly.
func ConfigFile() string {
	if f := os.Getenv("QUANTDASH_CONFIG"); f != "" {
		return f
	}
	switch strings.ToLower(os.Getenv("QUANTDASH_ENV")) {
	case "dev":
		return "config-dev.toml"
	case "test":
		return "config-test.toml"
	}
	return "config.toml"
}

// LoadConfig layers defaults, the TOML file (if present) and environment
// overrides, in that order. A .env file is loaded into the environment first.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if env := os.Getenv("QUANTDASH_ENV"); env != "" {
		cfg.Environment = env
	}

	f, err := os.ReadFile(ConfigFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not open %s: %w", ConfigFile(), err)
	}
	if err == nil {
		if err := toml.Unmarshal(f, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile(), err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("QUANTDASH_ANALYTICS_URL"); v != "" {
		cfg.Analytics.BaseURL = v
	}
	if v := os.Getenv("QUANTDASH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUANTDASH_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("QUANTDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QUANTDASH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Analytics.BaseURL == "" {
		return fmt.Errorf("analytics.base_url is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Refresh.Period.Duration <= 0 || c.Refresh.BannerPeriod.Duration <= 0 {
		return fmt.Errorf("refresh periods must be positive")
	}
	if c.Sessions.IdleTTL.Duration <= 0 {
		return fmt.Errorf("sessions.idle_ttl must be positive")
	}
	if c.Analytics.RateLimit <= 0 {
		return fmt.Errorf("analytics.rate_limit must be positive, got %d", c.Analytics.RateLimit)
	}
	return nil
}
