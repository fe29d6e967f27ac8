package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-export-bot/internal/adapters/parser"
	"chat-export-bot/internal/cache"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/metrics"
	"chat-export-bot/internal/ports"
)

// DocumentProcessor связывает определение формата, разбор JSON и извлечение участников.
type DocumentProcessor struct {
	parser     ports.Parser
	extractor  ports.ExtractionService
	cacheStore *cache.CacheStore
	log        *slog.Logger
}

// ProcessorOption: функциональная опция для DocumentProcessor.
type ProcessorOption func(*DocumentProcessor)

// WithCache включает кэширование результатов по хешу содержимого.
func WithCache(cs *cache.CacheStore) ProcessorOption {
	return func(p *DocumentProcessor) {
		p.cacheStore = cs
	}
}

// WithProcessorLogger устанавливает логгер.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *DocumentProcessor) {
		if l != nil {
			p.log = l
		}
	}
}

// NewDocumentProcessor создает процессор с JSON-парсером и сервисом извлечения по умолчанию.
func NewDocumentProcessor(opts ...ProcessorOption) *DocumentProcessor {
	p := &DocumentProcessor{
		parser:    parser.NewJsonParser(),
		extractor: NewExtractionService(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseDocument разбирает один файл экспорта. Ошибки формата возвращаются как *domain.FormatError.
func (p *DocumentProcessor) ParseDocument(fileName string, payload []byte) (*domain.ExtractionResult, error) {
	logger := p.log.With(slog.String("file", fileName), slog.Int("size", len(payload)))

	format := parser.DetectFormat(fileName, payload)
	if format != parser.FormatJSON {
		logger.Warn("unsupported export format", slog.String("format", string(format)))
		metrics.DocumentsParsed.WithLabelValues("format_error").Inc()
		return nil, &domain.FormatError{
			Message: "Поддерживаются только JSON-файлы экспорта",
			Err:     fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format),
		}
	}

	var key string
	if p.cacheStore != nil {
		key = cache.ContentHash(payload)
		if result, ok := p.cacheStore.Get(key); ok {
			logger.Debug("parse cache hit", slog.String("hash", key))
			metrics.DocumentsParsed.WithLabelValues("cache_hit").Inc()
			return result, nil
		}
	}

	start := time.Now()
	chat, err := p.parser.Parse(payload)
	if err != nil {
		var formatErr *domain.FormatError
		if errors.As(err, &formatErr) {
			logger.Warn("failed to parse export", slog.String("error", fmt.Sprintf("%v", formatErr.Err)))
			metrics.DocumentsParsed.WithLabelValues("format_error").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	result, err := p.extractor.Extract(chat)
	if err != nil {
		return nil, fmt.Errorf("failed to extract identities from %s: %w", fileName, err)
	}
	metrics.ParseDuration.Observe(time.Since(start).Seconds())
	metrics.DocumentsParsed.WithLabelValues("ok").Inc()

	logger.Info("export parsed",
		slog.Int("message_count", len(chat.Messages)),
		slog.Int("participants", len(result.Participants)),
		slog.Int("mentions", len(result.Mentions)),
		slog.Int("channels", len(result.Channels)),
	)

	// Без даты в файле результат зависит от момента разбора, такой не кэшируется.
	if p.cacheStore != nil && result.ExportedAtKnown {
		p.cacheStore.Put(key, result)
	}
	return result, nil
}
