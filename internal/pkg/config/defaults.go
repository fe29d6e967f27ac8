package config

import "time"

// Значения по умолчанию для конфигурации HTTP API.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 10

	// Processing defaults
	DefaultInlineThreshold = 50
	DefaultCacheTTL        = 60 * time.Minute
	DefaultSessionTTL      = 2 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
