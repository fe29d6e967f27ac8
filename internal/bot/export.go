package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/core/output"
	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/metrics"
)

const (
	msgNoFiles       = "Нет файлов для обработки. Отправьте один или несколько файлов экспорта."
	msgProcessing    = "Обрабатываю данные..."
	msgEmptyResult   = "Нет данных о переписке. Отправьте файл, где есть участники чата."
	msgDownloadError = "Не удалось скачать файл %s. Попробуйте отправить его еще раз."
	msgFileError     = "Файл %s пропущен: %s"
	msgInternalError = "Не удалось обработать файл %s."
	msgExcelError    = "Не удалось сформировать Excel-файл. Попробуйте позже."
	msgExcelCaption  = "Excel-файл с участниками, упоминаниями и каналами."
)

// handleExport разбирает все документы пачки по очереди, объединяет их в сессии
// пользователя и отправляет результат. После ответа пачка и сессия очищаются.
func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.Int64("user_id", userID))

	docs, ok := b.batches.Documents(chatID)
	if !ok {
		b.reply(ctx, chatID, msgNoFiles)
		return
	}

	sess := b.sessions.GetOrCreate(userID)
	defer func() {
		b.batches.Clear(chatID)
		sess.Reset()
	}()

	b.reply(ctx, chatID, msgProcessing)
	for _, doc := range docs {
		b.sendTyping(ctx, chatID)
		b.processDocument(ctx, logger, chatID, sess, doc)
	}

	stats := sess.Stats()
	logger.Info("batch processed",
		slog.Int("files", len(docs)),
		slog.Int("files_processed", stats.FilesProcessed),
		slog.Int("participants", stats.Participants),
		slog.Int("mentions", stats.Mentions),
		slog.Int("channels", stats.Channels))

	if stats.Participants == 0 && stats.FilesReceived > 0 {
		metrics.BotExports.WithLabelValues("empty").Inc()
		b.reply(ctx, chatID, msgEmptyResult)
		return
	}

	mode := output.Choose(stats.Participants, b.cfg.InlineThreshold)
	metrics.BotExports.WithLabelValues(mode.String()).Inc()
	switch mode {
	case output.ModeInline:
		b.sendInline(ctx, chatID, sess)
	default:
		b.sendWorkbook(ctx, logger, chatID, sess, stats)
	}
}

func (b *Bot) processDocument(ctx context.Context, logger *slog.Logger, chatID int64, sess *session.Session, doc tgbotapi.Document) {
	logger = logger.With(slog.String("file", doc.FileName))

	payload, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		logger.Error("failed to download document", slog.String("error", err.Error()))
		b.reply(ctx, chatID, fmt.Sprintf(msgDownloadError, doc.FileName))
		return
	}

	result, err := b.processor.ParseDocument(doc.FileName, payload)
	if err != nil {
		var formatErr *domain.FormatError
		if errors.As(err, &formatErr) {
			logger.Warn("document skipped", slog.Any("error", formatErr.Err))
			b.reply(ctx, chatID, fmt.Sprintf(msgFileError, doc.FileName, formatErr.Message))
			return
		}
		logger.Error("failed to process document", slog.String("error", err.Error()))
		b.reply(ctx, chatID, fmt.Sprintf(msgInternalError, doc.FileName))
		return
	}

	added := sess.Merge(result)
	logger.Debug("document merged",
		slog.Int("new_participants", added[domain.CategoryParticipants]),
		slog.Int("new_mentions", added[domain.CategoryMentions]),
		slog.Int("new_channels", added[domain.CategoryChannels]))
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.getFileDirectURLFunc(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file direct url: %w", err)
	}
	return b.files.Download(ctx, b.httpClient, url)
}

func (b *Bot) sendInline(ctx context.Context, chatID int64, sess *session.Session) {
	text := output.InlineText(sess.Participants())
	for _, part := range output.SplitMessage(text, output.TelegramMessageLimit) {
		// Telegram не принимает пустые сообщения.
		if strings.TrimSpace(part) == "" {
			continue
		}
		b.reply(ctx, chatID, part)
	}
}

func (b *Bot) sendWorkbook(ctx context.Context, logger *slog.Logger, chatID int64, sess *session.Session, stats session.Stats) {
	data, err := b.renderer.Render(sess.AsRows(nil))
	if err != nil {
		logger.Error("failed to render workbook", slog.String("error", err.Error()))
		b.reply(ctx, chatID, msgExcelError)
		return
	}

	at := b.now()
	if stats.LastExportedAt != nil {
		at = *stats.LastExportedAt
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  exporter.WorkbookFileName(at.In(b.location)),
		Bytes: data,
	})
	doc.Caption = msgExcelCaption
	b.send(ctx, doc)
}
