package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cartera/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Cartera", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "America/Bogota", cfg.App.Timezone)
	assert.Equal(t, "auto_revert", cfg.Ledger.PaidPolicy)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "postgres://postgres:@localhost:5432/cartera?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_PAID_POLICY", "sticky")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "sticky", cfg.Ledger.PaidPolicy)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Contains(t, cfg.ConnectionString(), "postgres:secret@")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "abc")

	_, err := config.Load()
	require.Error(t, err)
}

func TestConfig_Clock(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	now, err := cfg.Clock()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", now().Location().String())

	cfg.App.Timezone = "Nowhere/Atlantis"
	_, err = cfg.Clock()
	require.Error(t, err)
}

func TestConfig_SlogLevel_Fallback(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.App.LogLevel = "loud"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
