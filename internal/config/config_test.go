package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 60, cfg.RateLimit.IPPerMin)
	assert.Equal(t, 2, cfg.RateLimit.BurstMultiplier)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ANKETIRAJ_SERVER_PORT", "9090")
	t.Setenv("ANKETIRAJ_RATE_LIMIT_IP_PER_MIN", "10")
	t.Setenv("ANKETIRAJ_REDIS_ADDR", "localhost:6379")
	t.Setenv("ANKETIRAJ_LOGGING_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.IPPerMin)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: "8088"
cache:
  ttl: 90s
rate_limit:
  ip_per_min: 120
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 120, cfg.RateLimit.IPPerMin)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{Logging: LoggingConfig{Level: tt.level}}
			assert.Equal(t, tt.expected, cfg.SlogLevel())
		})
	}
}
