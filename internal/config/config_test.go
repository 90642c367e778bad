package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulwork/breakfast/internal/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIURL)
	assert.Equal(t, "http://localhost:3000", cfg.WebURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Empty(t, cfg.SessionFile)
	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.AllowUnexpiringTokens)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := config.Parse(map[string]string{
		"BREAKFAST_API_URL":                 "https://cafe.example/api/v1",
		"BREAKFAST_TIMEOUT":                 "5s",
		"BREAKFAST_STORE":                   "redis",
		"BREAKFAST_REDIS_URL":               "redis://cache:6379/2",
		"BREAKFAST_PROFILE":                 "kiosk",
		"BREAKFAST_ALLOW_UNEXPIRING_TOKENS": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cafe.example/api/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, "kiosk", cfg.Profile)
	assert.True(t, cfg.AllowUnexpiringTokens)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store": {"BREAKFAST_STORE": "sqlite"},
		"zero timeout":  {"BREAKFAST_TIMEOUT": "0s"},
		"bad duration":  {"BREAKFAST_TIMEOUT": "soon"},
		"bad bool":      {"BREAKFAST_ALLOW_UNEXPIRING_TOKENS": "maybe"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse(environ)
			assert.Error(t, err)
		})
	}
}

func TestParse_InvalidStoreIsTyped(t *testing.T) {
	_, err := config.Parse(map[string]string{"BREAKFAST_STORE": "sqlite"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
