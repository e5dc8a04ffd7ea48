package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  user: geo
  password: secret
  database: quickbite
rabbitmq:
  user: guest
  password: guest
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, 5672, cfg.RabbitMQ.Port)
	require.Equal(t, 3005, cfg.HTTP.Port)
	require.Equal(t, 10*time.Second, cfg.SnapshotInterval())
	require.Equal(t, 15*time.Minute, cfg.ActiveWindow())
	require.NotEmpty(t, cfg.JWT.SecretKey)
	require.Empty(t, cfg.WebSocket.AllowedOrigins)
}

func TestLoadFromFileFullConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5433
  user: geo
  password: secret
  database: quickbite
rabbitmq:
  host: mq.internal
  port: 5673
  user: geo
  password: secret
http:
  port: 8080
websocket:
  allowed_origins:
    - https://app.example.com
jwt:
  secret_key: fixed-secret
tracking:
  snapshot_interval_seconds: 5
  active_window_minutes: 30
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, []string{"https://app.example.com"}, cfg.WebSocket.AllowedOrigins)
	require.Equal(t, "fixed-secret", cfg.JWT.SecretKey)
	require.Equal(t, 5*time.Second, cfg.SnapshotInterval())
	require.Equal(t, 30*time.Minute, cfg.ActiveWindow())
}

func TestLoadFromFileRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
rabbitmq:
  host: localhost
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.user is required")
	require.Contains(t, err.Error(), "rabbitmq.password is required")
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
