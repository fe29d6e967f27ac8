// Package usecase содержит сценарий загрузки нескольких файлов экспорта в одну сессию.
package usecase

import (
	"context"
	"errors"
	"log/slog"

	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
)

// Тексты ошибок, которые видит клиент. Внутренние причины пишутся только в лог.
const (
	ErrTextFetch    = "Не удалось прочитать файл"
	ErrTextInternal = "Внутренняя ошибка обработки файла"
)

// FileOutcome: итог обработки одного файла.
type FileOutcome struct {
	File   string                  `json:"file"`
	Merged map[domain.Category]int `json:"merged,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// OK сообщает, был ли файл объединен с сессией.
func (o FileOutcome) OK() bool {
	return o.Error == ""
}

// IngestUseCase разбирает файлы по одному и объединяет результаты с сессией.
// Ошибка одного файла не прерывает обработку остальных.
type IngestUseCase struct {
	processor ports.DocumentProcessor
	logger    *slog.Logger
}

// NewIngestUseCase создает новый экземпляр IngestUseCase.
func NewIngestUseCase(processor ports.DocumentProcessor, logger *slog.Logger) *IngestUseCase {
	return &IngestUseCase{processor: processor, logger: logger}
}

// Ingest обрабатывает источники последовательно в заданном порядке. Отмена контекста
// проверяется между файлами: уже объединенные данные остаются в сессии.
func (uc *IngestUseCase) Ingest(ctx context.Context, sess *session.Session, sources []ports.DataSource) ([]FileOutcome, error) {
	outcomes := make([]FileOutcome, 0, len(sources))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		sess.MarkReceived()
		outcomes = append(outcomes, uc.ingestOne(sess, src))
	}
	return outcomes, nil
}

func (uc *IngestUseCase) ingestOne(sess *session.Session, src ports.DataSource) FileOutcome {
	outcome := FileOutcome{File: src.Name()}
	logger := uc.logger.With(slog.String("file", src.Name()))

	payload, err := src.Fetch()
	if err != nil {
		logger.Error("failed to fetch document", slog.String("error", err.Error()))
		outcome.Error = ErrTextFetch
		return outcome
	}

	result, err := uc.processor.ParseDocument(src.Name(), payload)
	if err != nil {
		var formatErr *domain.FormatError
		if errors.As(err, &formatErr) {
			logger.Warn("document skipped", slog.Any("error", formatErr.Err))
			outcome.Error = formatErr.Message
			return outcome
		}
		logger.Error("failed to process document", slog.String("error", err.Error()))
		outcome.Error = ErrTextInternal
		return outcome
	}

	outcome.Merged = sess.Merge(result)
	logger.Info("document merged",
		slog.Int("participants", outcome.Merged[domain.CategoryParticipants]),
		slog.Int("mentions", outcome.Merged[domain.CategoryMentions]),
		slog.Int("channels", outcome.Merged[domain.CategoryChannels]))
	return outcome
}
