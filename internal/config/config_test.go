package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "")
	t.Setenv("LOCKOUT_DURATION", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "Invoice and Payment System", cfg.Mail.FromName)
	assert.Equal(t, "System Admin", cfg.Admin.Name)
}

func TestLoad_EmptyEnvironmentRejectsDefaultSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MAIL_PROVIDER", "")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, defaultJWTSecret, cfg.JWT.Secret)
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET must be changed outside dev")

	t.Setenv("APP_ENV", "dev")
	require.NoError(t, Load().Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "3")
	t.Setenv("LOCKOUT_DURATION", "2m")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("MAIL_PROVIDER", "SES")
	t.Setenv("PUBLIC_BASE_URL", "https://billing.example.com/")

	cfg := Load()

	assert.Equal(t, 3, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "ses", cfg.Mail.Provider)
	assert.Equal(t, "https://billing.example.com", cfg.PublicBaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "dev with default secret", mutate: func(c *Config) {}, wantErr: false},
		{name: "prod with default secret", mutate: func(c *Config) { c.Env = "prod" }, wantErr: true},
		{name: "prod with real secret", mutate: func(c *Config) { c.Env = "prod"; c.JWT.Secret = "s3cr3t" }, wantErr: false},
		{name: "empty secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "unknown mail provider", mutate: func(c *Config) { c.Mail.Provider = "pigeon" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Env:     "dev",
				JWT:     JWTConfig{Secret: defaultJWTSecret},
				Mail:    MailConfig{Provider: "log"},
				Lockout: LockoutConfig{MaxAttempts: 5, Duration: 15 * time.Minute},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
