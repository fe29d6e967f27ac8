package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverYAML = `
server:
  host: "127.0.0.1"
  port: 8081
  shutdown_timeout: 5s
  max_upload_size_mb: 20
processing:
  inline_threshold: 25
  cache_ttl: 30m
  session_ttl: 1h
logging:
  level: "debug"
  format: "text"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SERVER_HOST", "SERVER_PORT", "INLINE_THRESHOLD", "SESSION_TTL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("значения по умолчанию без файла", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		assert.Equal(t, defaultConfig(), cfg)
		assert.Equal(t, "0.0.0.0:8080", cfg.Address())
		assert.EqualValues(t, 10<<20, cfg.MaxUploadSize())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("YAML перекрывает значения по умолчанию", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadConfig(createTempConfigFile(t, serverYAML))
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:8081", cfg.Address())
		assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)
		assert.Equal(t, 20, cfg.Server.MaxUploadSizeMB)
		assert.Equal(t, 25, cfg.Processing.InlineThreshold)
		assert.Equal(t, 30*time.Minute, cfg.Processing.CacheTTL)
		assert.Equal(t, time.Hour, cfg.Processing.SessionTTL)
		assert.Equal(t, DefaultCleanupInterval, cfg.Processing.CleanupInterval)
		assert.Equal(t, "text", cfg.Logging.Format)
	})

	t.Run("окружение перекрывает YAML", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("INLINE_THRESHOLD", "5")
		t.Setenv("SESSION_TTL", "15m")
		t.Setenv("LOG_LEVEL", "ERROR")

		cfg, err := LoadConfig(createTempConfigFile(t, serverYAML))
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 5, cfg.Processing.InlineThreshold)
		assert.Equal(t, 15*time.Minute, cfg.Processing.SessionTTL)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("ошибка разбора окружения", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_PORT", "http")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		assert.ErrorContains(t, err, "SERVER_PORT")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"порт вне диапазона", func(c *Config) { c.Server.Port = 70000 }},
		{"нулевой таймаут остановки", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"нулевой лимит загрузки", func(c *Config) { c.Server.MaxUploadSizeMB = 0 }},
		{"отрицательный порог", func(c *Config) { c.Processing.InlineThreshold = -1 }},
		{"нулевой TTL кеша", func(c *Config) { c.Processing.CacheTTL = 0 }},
		{"нулевой TTL сессии", func(c *Config) { c.Processing.SessionTTL = 0 }},
		{"нулевой интервал очистки", func(c *Config) { c.Processing.CleanupInterval = 0 }},
		{"неизвестный уровень логов", func(c *Config) { c.Logging.Level = "verbose" }},
		{"неизвестный формат логов", func(c *Config) { c.Logging.Format = "logfmt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
