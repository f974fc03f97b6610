package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.NotEmpty(t, cfg.Storage.LocalPath)
	assert.Equal(t, "mid", cfg.Tracking.ExperienceLevel)
	assert.Equal(t, 30*time.Second, cfg.Tracking.SessionIdleTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Storage.LocalPath = "" },
			wantErr: "local_path",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.PostgresDSN = ""
			},
			wantErr: "postgres_dsn",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "redis" },
			wantErr: "unknown storage type",
		},
		{
			name:    "unknown experience level",
			mutate:  func(c *Config) { c.Tracking.ExperienceLevel = "wizard" },
			wantErr: "unknown experience level",
		},
		{
			name:    "non-positive idle timeout",
			mutate:  func(c *Config) { c.Tracking.SessionIdleTimeout = 0 },
			wantErr: "session_idle_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLevelCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Tracking.ExperienceLevel = "Senior"
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/reviewsense")
	t.Setenv("EXPERIENCE_LEVEL", "senior")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45s")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/reviewsense", cfg.Storage.PostgresDSN)
	assert.Equal(t, "senior", cfg.Tracking.ExperienceLevel)
	assert.Equal(t, 45*time.Second, cfg.Tracking.SessionIdleTimeout)
}
