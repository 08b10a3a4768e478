package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 3, cfg.Notification.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Notification.BackoffBase)
	assert.Equal(t, time.Second, cfg.Notification.PacingDelay)
	assert.Empty(t, cfg.Database.DSN)
	assert.Empty(t, cfg.Redis.URL)
	assert.NotEmpty(t, cfg.Admin.JWTSigningKey)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "5")
	t.Setenv("NOTIFY_OPS_ALERT_EMAIL", "ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Notification.MaxAttempts)
	assert.Equal(t, "ops@example.com", cfg.Notification.OpsAlertEmail)
}

func TestTimeoutMultiplierScalesBudgets(t *testing.T) {
	t.Setenv("NOTIFY_TIMEOUT_MULTIPLIER", "2.0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 20*time.Second, cfg.Notification.AttemptTimeout)
	assert.Equal(t, 10*time.Second, cfg.Notification.BackoffBase)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}
