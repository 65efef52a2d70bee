package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8099, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "http://supervisor/core", cfg.HomeAssistantURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "07:00", cfg.DigestTime)
	assert.Equal(t, 30, cfg.SnapshotIntervalMinutes)
	assert.Equal(t, 7, cfg.HistoryDays)
	assert.True(t, cfg.WeeklyDigestEnabled)
	assert.Equal(t, "persistent_notification.create", cfg.NotificationService)
	assert.Equal(t, ":8099", cfg.GetHTTPAddr())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOMEPULSE_HTTP_PORT", "9000")
	t.Setenv("HOMEPULSE_DIGEST_TIME", "21:30")
	t.Setenv("HOMEPULSE_WEEKLY_DIGEST", "false")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "21:30", cfg.DigestTime)
	assert.False(t, cfg.WeeklyDigestEnabled)
}

func TestResolveDefaultsRejectsBadDriver(t *testing.T) {
	t.Setenv("HOMEPULSE_DB_DRIVER", "mysql")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestResolveDefaultsRequiresPostgresDSN(t *testing.T) {
	t.Setenv("HOMEPULSE_DB_DRIVER", "postgres")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestDigestClock(t *testing.T) {
	cfg := &Config{DigestTime: "07:05"}
	hour, minute, err := cfg.DigestClock()
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 5, minute)

	for _, bad := range []string{"25:00", "07:61", "0700", "seven"} {
		cfg.DigestTime = bad
		_, _, err := cfg.DigestClock()
		assert.Error(t, err, bad)
	}
}

func TestSupervisorTokenFallback(t *testing.T) {
	t.Setenv("SUPERVISOR_TOKEN", "tok-from-supervisor")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "tok-from-supervisor", cfg.SupervisorToken)
}

func TestSnapshotIntervalBounds(t *testing.T) {
	t.Setenv("HOMEPULSE_SNAPSHOT_INTERVAL_MINUTES", "60")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNAPSHOT_INTERVAL_MINUTES")
}
