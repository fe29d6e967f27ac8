package config

import "time"

// Значения по умолчанию для конфигурации бота.
const (
	DefaultMaxSize         = 10485760 // 10 Мб
	DefaultInlineThreshold = 50
	DefaultBatchDelay      = 2 * time.Second
	DefaultTimezone        = "UTC"
	DefaultSendRate        = 25.0
	DefaultSendBurst       = 1
	DefaultDownloadTimeout = 60 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPidFile = "bot.pid"
	DefaultLogFile = "bot.log"
)
