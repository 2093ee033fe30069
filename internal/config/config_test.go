package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("PROVIDER_TIMEOUT", "")
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("CLIENT_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.App.ProviderTimeout)
	assert.False(t, cfg.App.VerifyPasswords)
	assert.Equal(t, "http://localhost:5000/api/strava/callback", cfg.StravaRedirectURL())
	assert.Equal(t, "http://localhost:3000", cfg.Server.ClientURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "8081")
	t.Setenv("PUBLIC_URL", "https://rides.example.com/")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("VERIFY_PASSWORDS", "true")
	t.Setenv("STRAVA_RATE_BURST", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.App.VerifyPasswords)
	assert.Equal(t, 5, cfg.Strava.RateBurst)
	assert.Equal(t, "https://rides.example.com/api/auth/google/callback", cfg.GoogleRedirectURL())
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://a.example.com")
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://b.example.com")
	assert.NotContains(t, cfg.Server.AllowedOrigins, "")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "5000"},
			Storage: StorageConfig{Driver: StorageMemory},
			Session: SessionConfig{JWTSecret: "secret"},
			App:     AppConfig{ProviderTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Session.JWTSecret = "" }, "JWT_SECRET"},
		{"postgres without url", func(c *Config) { c.Storage.Driver = StoragePostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "STORAGE_DRIVER"},
		{"zero timeout", func(c *Config) { c.App.ProviderTimeout = 0 }, "PROVIDER_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
