package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"Storefront/internal/kvstore"
)

const minSecretLen = 32

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"PORT" envDefault:"8080"`

	CatalogPath string `env:"CATALOG_PATH" envDefault:"web/catalog.html"`

	// Persistence
	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"file"`
	DataDir      string        `env:"DATA_DIR" envDefault:"data"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string        `env:"REDIS_PASSWORD"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
	RedisTTL     time.Duration `env:"REDIS_TTL" envDefault:"0s"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`

	// Sessions
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionIdle   time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsToken   string `env:"METRICS_TOKEN"`

	ActionRateLimit  int           `env:"ACTION_RATE_LIMIT" envDefault:"120"`
	ActionRateWindow time.Duration `env:"ACTION_RATE_WINDOW" envDefault:"1m"`
}

// Load reads an optional dotenv file (CONFIG_FILE, else ./.env) and then the
// environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv() error {
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load config file %s: %w", file, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.SessionSecret) < minSecretLen {
		return fmt.Errorf("SESSION_SECRET is required and must be at least %d chars", minSecretLen)
	}
	if c.SessionTTL <= 0 || c.SessionIdle <= 0 {
		return errors.New("SESSION_TTL and SESSION_IDLE must be positive")
	}
	if c.CatalogPath == "" {
		return errors.New("CATALOG_PATH is required")
	}

	switch c.StoreDriver {
	case kvstore.DriverMemory:
	case kvstore.DriverFile:
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required for the file store")
		}
	case kvstore.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case kvstore.DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.ActionRateLimit < 0 {
		return fmt.Errorf("invalid ACTION_RATE_LIMIT: %d", c.ActionRateLimit)
	}
	return nil
}

// StoreOptions maps the persistence settings onto kvstore.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Driver:        c.StoreDriver,
		DataDir:       c.DataDir,
		DatabaseURL:   c.DatabaseURL,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPass,
		RedisDB:       c.RedisDB,
		RedisTTL:      c.RedisTTL,
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
