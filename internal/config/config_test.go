package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, ":8081", cfg.AdminAddr)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3*time.Second, cfg.DashboardTimeout)
	assert.False(t, cfg.MediaEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", "/tmp/shop.db")
	t.Setenv("DASHBOARD_TIMEOUT", "500ms")
	t.Setenv("S3_BUCKET", "shop-images")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "/tmp/shop.db", cfg.StoreDSN)
	assert.Equal(t, 500*time.Millisecond, cfg.DashboardTimeout)
	assert.True(t, cfg.MediaEnabled())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
