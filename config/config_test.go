package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{"development environment", &Config{Server: ServerConfig{AppEnv: "development"}}, true},
		{"debug gin mode", &Config{Server: ServerConfig{GinMode: "debug"}}, true},
		{"production environment", &Config{Server: ServerConfig{AppEnv: "production"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Server: ServerConfig{AppEnv: "production"}}).IsProduction())
	assert.False(t, (&Config{Server: ServerConfig{AppEnv: "staging"}}).IsProduction())
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8081", AllowedOrigins: []string{"http://localhost:3000"}},
		Database: DatabaseConfig{WorkOffline: true},
		Auth:     AuthConfig{JWTSecret: testSecret},
		Security: SecurityConfig{
			MaxFailedLogins:   5,
			LockoutDuration:   2 * time.Hour,
			PasswordMinLength: 8,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid offline config", mutate: func(*Config) {}},
		{
			name:   "valid online config",
			mutate: func(c *Config) { c.Database = DatabaseConfig{URL: "postgres://localhost/db"} },
		},
		{
			name:     "missing database url",
			mutate:   func(c *Config) { c.Database.WorkOffline = false },
			errorMsg: "DATABASE_URL is required",
		},
		{
			name:     "short jwt secret",
			mutate:   func(c *Config) { c.Auth.JWTSecret = "short" },
			errorMsg: "JWT_SECRET",
		},
		{
			name:     "zero lockout threshold",
			mutate:   func(c *Config) { c.Security.MaxFailedLogins = 0 },
			errorMsg: "MAX_FAILED_LOGINS",
		},
		{
			name:     "profiling without endpoint",
			mutate:   func(c *Config) { c.Profiling.Enabled = true },
			errorMsg: "PROFILING_ENDPOINT",
		},
		{
			name:     "no cors origins",
			mutate:   func(c *Config) { c.Server.AllowedOrigins = nil },
			errorMsg: "ALLOWED_CORS_ORIGINS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })
}

func TestLoad_WithDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_WORK_OFFLINE", "true")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 5, cfg.Security.MaxFailedLogins)
	assert.Equal(t, 120*time.Minute, cfg.Security.LockoutDuration)
	assert.Equal(t, 3, cfg.Reconciliation.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Reconciliation.InitialDelay)
	assert.Equal(t, 15*time.Minute, cfg.Reconciliation.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ReputationTTL)
	assert.Equal(t, "certs/db-ca.crt", cfg.Database.CACertPath)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://localhost/mentorship")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ALLOWED_CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MAX_FAILED_LOGINS", "3")
	t.Setenv("RECONCILE_INTERVAL_MINUTES", "0")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REQUEST_ACCEPTED_TRIGGER_URL", "https://hooks.example/accepted")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3, cfg.Security.MaxFailedLogins)
	assert.Zero(t, cfg.Reconciliation.Interval)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.True(t, strings.HasSuffix(cfg.EventTriggers.RequestAcceptedTriggerURL, "/accepted"))
}

func TestLoad_ValidationFailure(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_WORK_OFFLINE", "false")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
