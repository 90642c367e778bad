// Package config loads client settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds every setting of the breakfast client.
type Config struct {
	APIURL      string        `env:"BREAKFAST_API_URL" envDefault:"http://localhost:8080/api/v1"`
	WebURL      string        `env:"BREAKFAST_WEB_URL" envDefault:"http://localhost:3000"`
	Timeout     time.Duration `env:"BREAKFAST_TIMEOUT" envDefault:"30s"`
	Store       string        `env:"BREAKFAST_STORE" envDefault:"file"`
	SessionFile string        `env:"BREAKFAST_SESSION_FILE"` // empty means ~/.breakfast/session
	RedisURL    string        `env:"BREAKFAST_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Profile     string        `env:"BREAKFAST_PROFILE" envDefault:"default"`
	LogFile     string        `env:"BREAKFAST_LOG_FILE"`
	LogLevel    string        `env:"BREAKFAST_LOG_LEVEL" envDefault:"info"`

	// AllowUnexpiringTokens accepts tokens without an exp claim. Off by default:
	// a token that never expires cannot be judged locally.
	AllowUnexpiringTokens bool `env:"BREAKFAST_ALLOW_UNEXPIRING_TOKENS" envDefault:"false"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load() // the .env file is optional
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse reads configuration from environ only, ignoring the process environment.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config.Parse: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("%w: BREAKFAST_STORE must be %q, %q or %q, got %q",
			ErrInvalidConfig, StoreFile, StoreRedis, StoreMemory, c.Store)
	}
	if c.APIURL == "" {
		return fmt.Errorf("%w: BREAKFAST_API_URL is empty", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: BREAKFAST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}
