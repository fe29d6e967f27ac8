// Package config загружает конфигурацию Telegram-бота из bot_config.yml, .env и окружения.
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

// BotConfig содержит настройки работы бота.
type BotConfig struct {
	Token           string        `yaml:"token"`
	MaxSize         int64         `yaml:"max_size"`         // байты
	InlineThreshold int           `yaml:"inline_threshold"` // меньше порога — ответ текстом
	BatchDelay      time.Duration `yaml:"batch_delay"`
	Timezone        string        `yaml:"timezone"`
	SendRate        float64       `yaml:"send_rate"` // сообщений в секунду
	SendBurst       int           `yaml:"send_burst"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// Logging содержит конфигурацию логирования.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Daemon содержит настройки запуска в фоне.
type Daemon struct {
	PidFile string `yaml:"pid_file"`
	LogFile string `yaml:"log_file"`
	WorkDir string `yaml:"work_dir"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
	Daemon  Daemon    `yaml:"daemon"`
}

func defaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			MaxSize:         DefaultMaxSize,
			InlineThreshold: DefaultInlineThreshold,
			BatchDelay:      DefaultBatchDelay,
			Timezone:        DefaultTimezone,
			SendRate:        DefaultSendRate,
			SendBurst:       DefaultSendBurst,
			DownloadTimeout: DefaultDownloadTimeout,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Daemon: Daemon{
			PidFile: DefaultPidFile,
			LogFile: DefaultLogFile,
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если он есть),
// затем переменные окружения, в том числе из .env.
func Load(filename string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(filename, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read bot config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal bot config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("MAX_SIZE"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_SIZE: %w", err)
		}
		cfg.Bot.MaxSize = size
	}
	if v := os.Getenv("INLINE_THRESHOLD"); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INLINE_THRESHOLD: %w", err)
		}
		cfg.Bot.InlineThreshold = threshold
	}
	if v := os.Getenv("BOT_TZ"); v != "" {
		cfg.Bot.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Location возвращает часовой пояс бота.
func (c *BotConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate проверяет корректность конфигурации бота.
func (c *Config) Validate() error {
	if c.Bot.Token == "" || c.Bot.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured (set BOT_TOKEN)")
	}
	if c.Bot.MaxSize <= 0 {
		return fmt.Errorf("bot.max_size must be positive")
	}
	if c.Bot.InlineThreshold < 0 {
		return fmt.Errorf("bot.inline_threshold must not be negative")
	}
	if c.Bot.BatchDelay <= 0 {
		return fmt.Errorf("bot.batch_delay must be positive")
	}
	if _, err := c.Bot.Location(); err != nil {
		return fmt.Errorf("bot.timezone is invalid: %w", err)
	}
	if c.Bot.SendRate <= 0 {
		return fmt.Errorf("bot.send_rate must be positive")
	}
	if c.Bot.SendBurst <= 0 {
		return fmt.Errorf("bot.send_burst must be positive")
	}
	if c.Bot.DownloadTimeout <= 0 {
		return fmt.Errorf("bot.download_timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text")
	}
	return nil
}
