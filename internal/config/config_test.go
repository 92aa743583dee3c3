package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "jwt_secret: test-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Listen)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "SAMP", cfg.RegistrationPrefix)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/sampark.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, EmailTransportSMTP, cfg.Email.Transport)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:8080/"
frontend_url: "https://portal.example.com/"
jwt_secret: file-secret
token_ttl: 1h
registration_prefix: " conf "
database:
  driver: postgres
  dsn: "host=localhost user=sampark dbname=sampark"
email:
  enabled: true
  transport: sendgrid
  sendgrid_api_key: SG.key
  from_email: noreply@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "https://portal.example.com", cfg.FrontendURL)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "CONF", cfg.RegistrationPrefix)
	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, EmailTransportSendGrid, cfg.Email.Transport)
	assert.Equal(t, "SG.key", cfg.Email.SendGridAPIKey)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "jwt_secret: file-secret\n")
	t.Setenv("SAMPARK_JWT_SECRET", "env-secret")
	t.Setenv("SAMPARK_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:          "secret",
			TokenTTL:           time.Hour,
			RegistrationPrefix: "SAMP",
			Database:           &DatabaseConfig{Driver: DatabaseDriverSQLite, Path: "test.db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "jwt secret is required",
		},
		{
			name:    "non positive token ttl",
			mutate:  func(c *Config) { c.TokenTTL = 0 },
			wantErr: "token ttl must be greater than 0",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "unknown database driver",
		},
		{
			name:    "mysql without dsn",
			mutate:  func(c *Config) { c.Database.Driver = DatabaseDriverMySQL },
			wantErr: "database dsn is required when using mysql",
		},
		{
			name: "smtp without host",
			mutate: func(c *Config) {
				c.Email = &EmailConfig{Enabled: true, Transport: EmailTransportSMTP, FromEmail: "a@b.c"}
			},
			wantErr: "SMTP host is required",
		},
		{
			name: "sendgrid without key",
			mutate: func(c *Config) {
				c.Email = &EmailConfig{Enabled: true, Transport: EmailTransportSendGrid, FromEmail: "a@b.c"}
			},
			wantErr: "sendgrid api key is required",
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.Cache = &CacheConfig{Type: CacheTypeRedis} },
			wantErr: "Redis URL is required",
		},
		{
			name:    "invalid digest schedule",
			mutate:  func(c *Config) { c.Digest = &DigestConfig{Enabled: true, Schedule: "daily"} },
			wantErr: "digest schedule must be a valid cron expression",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.RateLimit = &RateLimitConfig{Enabled: true, RequestsPerSecond: 1} },
			wantErr: "rate limit burst must be greater than 0",
		},
		{
			name:    "unknown gravatar rating",
			mutate:  func(c *Config) { c.Gravatar = &GravatarConfig{Enabled: true, Rating: "nc17"} },
			wantErr: "invalid gravatar rating",
		},
		{
			name:    "oversized gravatar",
			mutate:  func(c *Config) { c.Gravatar = &GravatarConfig{Enabled: true, Size: 4096} },
			wantErr: "gravatar size must be between 1 and 2048",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.NotNil(t, c.Cache, "cache config should be defaulted")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
