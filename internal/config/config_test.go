package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VIDEO_POLL_INTERVAL", "")
	t.Setenv("VIDEO_POLL_ATTEMPTS", "")
	t.Setenv("VIDEO_TIMEOUT", "")
	t.Setenv("RESERVE_WAIT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://designstudio.db", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Second, cfg.AI.VideoPollInterval)
	assert.Equal(t, 30, cfg.AI.VideoPollAttempts)
	assert.Equal(t, 70*time.Second, cfg.AI.VideoTimeout)
	assert.Equal(t, 15*time.Second, cfg.AI.ReserveWait)
	assert.Greater(t, cfg.AI.VideoTimeout, cfg.VideoPollBound())
	assert.False(t, cfg.Quota.EnforceBackgroundQuota)
	assert.False(t, cfg.Quota.StrictCreditCheck)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Stripe.Enabled())
	assert.Contains(t, cfg.AllowedOrigins(), "http://localhost:3000")
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigRejectsShortVideoTimeout(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VIDEO_POLL_INTERVAL", "2s")
	t.Setenv("VIDEO_POLL_ATTEMPTS", "30")
	t.Setenv("VIDEO_TIMEOUT", "60")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VIDEO_TIMEOUT")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD_INT", "twelve")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_DUR", "1500ms")
	t.Setenv("X_SECS", "45")

	assert.Equal(t, 12, getEnvInt("X_INT", 1))
	assert.Equal(t, 1, getEnvInt("X_BAD_INT", 1))
	assert.True(t, getEnvBool("X_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, getEnvDuration("X_DUR", 0))
	assert.Equal(t, 45*time.Second, getEnvDuration("X_SECS", 0))
	assert.Equal(t, "fallback", getEnv("X_MISSING_KEY", "fallback"))
}

func TestLoadConfigRejectsWildcardOrigin(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "https://studio.example.com, *")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ORIGINS")

	t.Setenv("CORS_ORIGINS", "https://studio.example.com")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://studio.example.com"}, cfg.AllowedOrigins())
}
