// Package config предоставляет управление конфигурацией HTTP API
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadSizeMB int           `yaml:"max_upload_size_mb"`
}

// Processing содержит конфигурацию обработки и хранения сессий
type Processing struct {
	InlineThreshold int           `yaml:"inline_threshold"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	SessionTTL      time.Duration `yaml:"session_ttl"` // простой сессии до удаления
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `yaml:"server"`
	Processing Processing `yaml:"processing"`
	Logging    Logging    `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
		},
		Processing: Processing{
			InlineThreshold: DefaultInlineThreshold,
			CacheTTL:        DefaultCacheTTL,
			SessionTTL:      DefaultSessionTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml (если есть),
// затем переменные окружения и .env.
func LoadConfig(filename string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(filename, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла поверх уже заданных значений
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv перекрывает значения переменными окружения, если они заданы
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("INLINE_THRESHOLD"); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый INLINE_THRESHOLD: %w", err)
		}
		cfg.Processing.InlineThreshold = threshold
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый SESSION_TTL: %w", err)
		}
		cfg.Processing.SessionTTL = ttl
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadSize возвращает лимит размера загрузки в байтах
func (c *Config) MaxUploadSize() int64 {
	return int64(c.Server.MaxUploadSizeMB) << 20
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}
	if c.Processing.InlineThreshold < 0 {
		return fmt.Errorf("processing.inline_threshold не может быть отрицательным")
	}
	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}
	if c.Processing.SessionTTL <= 0 {
		return fmt.Errorf("processing.session_ttl должно быть положительным")
	}
	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть json или text")
	}
	return nil
}
