package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "seeds.db", cfg.DBPath)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.CheckInterval)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.StaleAfter)
	assert.Equal(t, 90, cfg.Scheduler.SnoozeMinutes)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.RecentSnoozeWindow)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.StopTimeout)
}

func TestLoad_PartialFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
port: 9090
scheduler:
  check_interval: 10s
  snooze_minutes: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.CheckInterval)
	assert.Equal(t, 30, cfg.Scheduler.SnoozeMinutes)

	// Everything unset falls back to defaults.
	assert.Equal(t, "seeds.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.StaleAfter)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.RecentSnoozeWindow)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
port: 3000
db_path: /tmp/engine.db
allowed_origins:
  - https://app.example.com
scheduler:
  check_interval: 2m
  stale_after: 1h
  snooze_minutes: 45
  recent_snooze_window: 5m
  stop_timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "/tmp/engine.db", cfg.DBPath)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.CheckInterval)
	assert.Equal(t, time.Hour, cfg.Scheduler.StaleAfter)
	assert.Equal(t, 45, cfg.Scheduler.SnoozeMinutes)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RecentSnoozeWindow)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.StopTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := writeConfig(t, "port: [not an int")
	_, err = Load(bad)
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
