package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 500
  codec: protobuf

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

storage:
  driver: sqlite
  sqlite_path: "/tmp/wordle.db"

game:
  max_players: 4
  code_length: 5
  code_attempts: 8
  code_seed: 42
  selection_timeout: 45
  game_timeout: 300
  reconnect_grace: 20
  room_idle_timeout: 90

words:
  daily_salt: "pepper"

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  rate_limit:
    per_second: 2
    burst: 4
  message_limit:
    per_second: 8
    burst: 16

log:
  level: debug
  pretty: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.MaxConnections)
	assert.Equal(t, "protobuf", cfg.Server.Codec)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/wordle.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 5, cfg.Game.CodeLength)
	assert.Equal(t, 8, cfg.Game.CodeAttempts)
	assert.Equal(t, uint64(42), cfg.Game.CodeSeed)
	assert.Equal(t, "pepper", cfg.Words.DailySalt)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.InDelta(t, 2.0, cfg.Security.RateLimit.PerSecond, 0.001)
	assert.Equal(t, 16, cfg.Security.MessageLimit.Burst)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	err := os.WriteFile(configPath, []byte("invalid: yaml: :::"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")
	err := os.WriteFile(configPath, []byte(`{}`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, defaultMaxPlayers, cfg.Game.MaxPlayers)
	assert.Equal(t, defaultSelectionTimeout, cfg.Game.SelectionTimeout)
	assert.Equal(t, defaultReconnectGrace, cfg.Game.ReconnectGrace)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultGameTimeout, cfg.Game.GameTimeout)
	assert.Equal(t, "json", cfg.Server.Codec)
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{
		SelectionTimeout:      45,
		GameTimeout:           300,
		ReconnectGrace:        20,
		RoomIdleTimeout:       90,
		ShutdownTimeout:       60,
		ShutdownCheckInterval: 5,
	}

	assert.Equal(t, 45*time.Second, cfg.SelectionTimeoutDuration())
	assert.Equal(t, 5*time.Minute, cfg.GameTimeoutDuration())
	assert.Equal(t, 20*time.Second, cfg.ReconnectGraceDuration())
	assert.Equal(t, 90*time.Second, cfg.RoomIdleTimeoutDuration())
	assert.Equal(t, time.Minute, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, 5*time.Second, cfg.ShutdownCheckIntervalDuration())
}

func TestApplyEnv(t *testing.T) {
	// 修改环境变量，不能并行
	t.Setenv("WORDLE_HOST", "env-host")
	t.Setenv("WORDLE_PORT", "9999")
	t.Setenv("WORDLE_REDIS_ADDR", "env-redis:6380")
	t.Setenv("WORDLE_STORAGE", "none")
	t.Setenv("WORDLE_LOG_LEVEL", "warn")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, StorageNone, cfg.Storage.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_IgnoresBadPort(t *testing.T) {
	t.Setenv("WORDLE_PORT", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, defaultPort, cfg.Server.Port)
}
