// Package config loads server and CLI settings from the environment, with an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings.
type Config struct {
	Addr    string // listen address
	TLSCert string // serve TLS when both cert and key are set
	TLSKey  string

	DatabaseURL string // Postgres DSN; empty selects the in-memory store
	TokenKey    string // HMAC key for session tokens
	AuthMemory  bool   // enable accounts without a database

	OutputDir string // where generated drawings are written
	StaticDir string // frontend build, served at / when present

	Workers        int     // batch generation pool size
	RateLimit      float64 // requests per second per client IP
	RateBurst      int
	MaxUploadBytes int64

	LogLevel slog.Level
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Addr:           ":8000",
		OutputDir:      os.TempDir(),
		StaticDir:      "./static",
		Workers:        4,
		RateLimit:      5,
		RateBurst:      10,
		MaxUploadBytes: 10 << 20,
		LogLevel:       slog.LevelInfo,
	}
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, e.g. os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("ADDR", &cfg.Addr)
	str("TLS_CERT", &cfg.TLSCert)
	str("TLS_KEY", &cfg.TLSKey)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("TOKEN_KEY", &cfg.TokenKey)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("STATIC_DIR", &cfg.StaticDir)

	if v := getenv("PORT"); v != "" && getenv("ADDR") == "" {
		cfg.Addr = ":" + strings.TrimSpace(v)
	}

	var err error
	if v := getenv("AUTH_MEMORY"); v != "" {
		if cfg.AuthMemory, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("AUTH_MEMORY: %w", err)
		}
	}
	if v := getenv("WORKERS"); v != "" {
		if cfg.Workers, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("WORKERS: %w", err)
		}
	}
	if v := getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT: %w", err)
		}
	}
	if v := getenv("RATE_BURST"); v != "" {
		if cfg.RateBurst, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("RATE_BURST: %w", err)
		}
	}
	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		if cfg.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AuthEnabled reports whether user accounts are served.
func (c *Config) AuthEnabled() bool {
	return c.DatabaseURL != "" || c.AuthMemory
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config error: WORKERS must be at least 1")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config error: RATE_LIMIT must be positive")
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("config error: RATE_BURST must be at least 1")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config error: MAX_UPLOAD_BYTES must be positive")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("config error: TLS_CERT and TLS_KEY must be set together")
	}
	if c.AuthEnabled() && c.TokenKey == "" {
		return fmt.Errorf("config error: TOKEN_KEY is required when accounts are enabled")
	}
	return nil
}
