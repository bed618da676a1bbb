package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASKBOARD_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "taskboard.db", cfg.DB.Path)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, 6, cfg.Auth.MinPasswordLength)
	require.True(t, cfg.Watch.Enabled)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /tmp/tb.db
log:
  level: debug
auth:
  session_ttl: 2h
watch:
  debounce: 250ms
`), 0o600))

	t.Setenv("TASKBOARD_CONFIG_PATH", path)
	t.Setenv("TASKBOARD_SERVER_PORT", "7070")
	t.Setenv("TASKBOARD_MCP_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "/tmp/tb.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	require.False(t, cfg.MCP.Enabled)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("TASKBOARD_CONFIG_PATH", "")

	t.Setenv("TASKBOARD_SERVER_PORT", "abc")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("TASKBOARD_SERVER_PORT", "")
	t.Setenv("TASKBOARD_TRANSPORT_MODE", "carrier-pigeon")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("TASKBOARD_TRANSPORT_MODE", "stdio")
	_, err = Load()
	require.ErrorContains(t, err, "default_user")

	t.Setenv("TASKBOARD_MCP_DEFAULT_USER", "ada@example.com")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("TASKBOARD_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}
