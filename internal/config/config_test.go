package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "JWT_SECRET", "TOKEN_TTL", "REDIS_ADDR", "OUTBOX_INTERVAL", "APP_ENV"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "./data/receipts.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2*time.Second, cfg.OutboxInterval)
	assert.Equal(t, devSecret, cfg.JWTSecret)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even empty ones.
	for _, k := range []string{"PORT", "REDIS_ADDR", "TOKEN_TTL"} {
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nREDIS_ADDR=localhost:6379\nTOKEN_TTL=1h\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("TOKEN_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad port":          {"PORT": "eighty"},
		"port out of range": {"PORT": "70000"},
		"bad ttl":           {"TOKEN_TTL": "soon"},
		"negative poll":     {"OUTBOX_INTERVAL": "-1s"},
		"prod needs secret": {"APP_ENV": "prod"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
