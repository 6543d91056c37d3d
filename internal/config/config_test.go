package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 30.0, cfg.Scoring.SEOWeight)
	assert.Equal(t, 40.0, cfg.Scoring.TrafficWeight)
	assert.Equal(t, 30.0, cfg.Scoring.BacklinksWeight)

	assert.Equal(t, 2, cfg.Analyzer.AuditMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Analyzer.AuditBackoff())
	assert.Equal(t, 15*time.Second, cfg.Analyzer.ProviderTimeout())
	assert.Equal(t, 45*time.Second, cfg.Analyzer.AuditTimeout())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COMPETE_SERVER_PORT", "9191")
	t.Setenv("COMPETE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
