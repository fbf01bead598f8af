package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: app
  password: secret
  dbname: feeds
  sslmode: disable

fetch:
  timeout: 10s
  batch_size: 5

pipeline:
  promotion_window: 12h

log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=feeds sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.BatchSize)
	assert.Equal(t, 12*time.Hour, cfg.Pipeline.PromotionWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Fetch.Backoff)
	assert.Equal(t, 20, cfg.Fetch.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Pipeline.PromotionWindow)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "feed_ingestor", cfg.RabbitMQ.Exchange)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "from-env")

	path := writeConfig(t, `
database:
  host: localhost
  password: ${TEST_DB_PASSWORD}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
