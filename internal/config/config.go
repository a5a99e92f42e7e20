// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	// RedisAddr enables the settlement cache when set.
	RedisAddr string

	OutboxInterval time.Duration

	// Dev relaxes the JWT secret requirement for local runs.
	Dev bool
}

const devSecret = "dev-secret-change-me"

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("No .env file loaded, using environment variables", "error", err)
	}

	cfg := &Config{
		DBPath:    getEnv("DB_PATH", "./data/receipts.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		Dev:       getEnv("APP_ENV", "dev") == "dev",
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.OutboxInterval, err = time.ParseDuration(getEnv("OUTBOX_INTERVAL", "2s")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_INTERVAL: %w", err)
	}
	if cfg.TokenTTL <= 0 || cfg.OutboxInterval <= 0 {
		return nil, errors.New("TOKEN_TTL and OUTBOX_INTERVAL must be positive")
	}

	if cfg.JWTSecret == "" {
		if !cfg.Dev {
			return nil, errors.New("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = devSecret
	}

	return cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
