package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://inventory@localhost/inventory?sslmode=disable")
	t.Setenv("APP_HOST", "")
	t.Setenv("COMPANY_NAME", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("WRITE_RATE_LIMIT", "")

	cfg := Load()

	assert.Equal(t, "postgres://inventory@localhost/inventory?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.AppHost)
	assert.Equal(t, "Company", cfg.CompanyName)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 120, cfg.WriteRateLimit)
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"go duration", "45s", 45 * time.Second},
		{"plain seconds", "20", 20 * time.Second},
		{"invalid", "soon", 15 * time.Second},
		{"negative", "-5s", 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REQUEST_TIMEOUT", tt.value)
			assert.Equal(t, tt.expected, getEnvDuration("REQUEST_TIMEOUT", 15*time.Second))
		})
	}
}
