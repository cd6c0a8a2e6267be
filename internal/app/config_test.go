package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 2160*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.AggregateCacheTTL)
	assert.Equal(t, "wayfarer", cfg.JWTIssuer)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ADDR", ":9000")
	t.Setenv("JWT_EXPIRES_IN", "24h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.AppAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "")
	_, err = LoadConfig()
	assert.Error(t, err)
}
