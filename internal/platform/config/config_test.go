package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/hrms",
		JWTSecret:          "secret",
		JWTTTL:             time.Hour,
		RefreshTTL:         24 * time.Hour,
		Environment:        "development",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 10,
		LogFormat:          "json",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid"},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = " " }, wantErr: "DATABASE_URL"},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production"; c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "production seed without password", mutate: func(c *Config) { c.Environment = "production"; c.RunSeed = true }, wantErr: "SEED_ADMIN_PASSWORD"},
		{name: "refresh shorter than access", mutate: func(c *Config) { c.RefreshTTL = 30 * time.Minute }, wantErr: "REFRESH_TTL"},
		{name: "small body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: "MAX_BODY_BYTES"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("RUN_SEED", "false")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("REFRESH_TTL", "72h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.RunSeed)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}
