package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_export_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Processing metrics
	DocumentsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_documents_parsed_total",
			Help: "Total export documents handed to the parser",
		},
		[]string{"result"}, // "ok", "format_error", "cache_hit"
	)

	ParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_export_parse_duration_seconds",
			Help:    "Time spent parsing one export document",
			Buckets: []float64{.001, .01, .05, .1, .5, 1, 5},
		},
	)

	IdentitiesMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_identities_merged_total",
			Help: "Previously unseen identities merged into sessions",
		},
		[]string{"category"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_export_active_sessions",
			Help: "Sessions currently held in memory by the HTTP API",
		},
	)

	// Bot metrics
	BotUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_bot_updates_total",
			Help: "Telegram updates handled by the bot",
		},
		[]string{"kind"}, // "command", "document", "text"
	)

	BotFilesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_bot_files_rejected_total",
			Help: "Documents rejected by the bot before parsing",
		},
		[]string{"reason"}, // "extension", "size"
	)

	BotExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_export_bot_exports_total",
			Help: "Completed /export runs by response mode",
		},
		[]string{"mode"}, // "inline", "spreadsheet", "empty"
	)
)
