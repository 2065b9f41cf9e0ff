package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_THROTTLE_INTERVAL", "")
	t.Setenv("LOG_THROTTLE_BURST", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.Throttle.Interval)
	assert.Equal(t, 10, cfg.Throttle.Burst)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_USER", "sales")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("LEVELS_FILE", "/etc/levels.toml")
	t.Setenv("LOG_THROTTLE_INTERVAL", "30s")
	t.Setenv("LOG_THROTTLE_BURST", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/etc/levels.toml", cfg.LevelsFile)
	assert.Equal(t, 30*time.Second, cfg.Throttle.Interval)
	assert.Equal(t, 3, cfg.Throttle.Burst)
	assert.Equal(t, "sales:secret@tcp(db:3307)/?charset=utf8mb4&parseTime=True&loc=Local", cfg.DB.DSN(false))
	assert.Contains(t, cfg.DB.DSN(true), "@tcp(db:3307)/crm?")
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("bad interval", func(t *testing.T) {
		t.Setenv("LOG_THROTTLE_INTERVAL", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("bad burst", func(t *testing.T) {
		t.Setenv("LOG_THROTTLE_BURST", "-1")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("production without jwt secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
