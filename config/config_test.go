package config_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-engine/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "labor.db", cfg.Database.Path)
	assert.True(t, cfg.Accrual.Enabled)
	assert.Equal(t, time.Hour, cfg.Accrual.Interval)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("ACCRUAL_ENABLED", "false")
	t.Setenv("ACCRUAL_INTERVAL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example,https://c.example")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.False(t, cfg.Accrual.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Accrual.Interval)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, cfg.CORS.AllowedOrigins)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	_, err := config.Parse()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "0")
	_, err = config.Parse()
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)

	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	l, err := cfg.Logger(&buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("k", "v").Info("hello")
	assert.Contains(t, buf.String(), `"k":"v"`)

	cfg.Log.Level = "loud"
	_, err = cfg.Logger(&buf)
	assert.Error(t, err)

	cfg.Log.Level = "info"
	cfg.Log.Format = "xml"
	_, err = cfg.Logger(&buf)
	assert.Error(t, err)
}
