package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"chat-export-bot/cmd/bot/config"
	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/metrics"
	"chat-export-bot/internal/ports"
)

const (
	startCommand  = "start"
	helpCommand   = "help"
	resetCommand  = "reset"
	exportCommand = "export"
)

const (
	msgReset      = "Сессия очищена. Можно отправлять файлы заново."
	msgNotJSON    = "Файл %s не поддерживается. Нужен файл формата JSON."
	msgTooLarge   = "Файл %s не поддерживается. Его размер превышает %.1f Мб."
	msgBatch      = "Всего получено %d файл(а)/(ов) нужного формата.\nДля обработки отправьте /export, для сброса /reset."
	msgSendFile   = "Пожалуйста, отправьте файл экспорта чата в формате JSON. Подробнее: /help"
	msgUnknownCmd = "Я не знаю такой команды. Список команд: /help"
)

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       config.BotConfig
	location  *time.Location
	processor ports.DocumentProcessor
	renderer  ports.SpreadsheetRenderer
	sessions  *session.Store[int64] // по пользователю
	batches   *BatchStore           // по чату
	files     *FileManager
	limiter   *rate.Limiter
	logger    *slog.Logger

	httpClient           *http.Client
	sendMessageFunc      func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	requestFunc          func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	getFileDirectURLFunc func(fileID string) (string, error)
	now                  func() time.Time
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, processor ports.DocumentProcessor, renderer ports.SpreadsheetRenderer, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	b, err := newBot(cfg, processor, renderer, logger)
	if err != nil {
		return nil, err
	}
	b.api = api
	b.sendMessageFunc = api.Send
	b.requestFunc = api.Request
	b.getFileDirectURLFunc = api.GetFileDirectURL
	return b, nil
}

func newBot(cfg config.BotConfig, processor ports.DocumentProcessor, renderer ports.SpreadsheetRenderer, logger *slog.Logger) (*Bot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	return &Bot{
		cfg:        cfg,
		location:   loc,
		processor:  processor,
		renderer:   renderer,
		sessions:   session.NewStore[int64](),
		batches:    NewBatchStore(),
		files:      NewFileManager(cfg.MaxSize),
		limiter:    rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.DownloadTimeout},
		now:        time.Now,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
// Обновления обрабатываются последовательно, поэтому одна сессия не экспортируется дважды одновременно.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	switch {
	case msg.IsCommand():
		metrics.BotUpdatesTotal.WithLabelValues("command").Inc()
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		metrics.BotUpdatesTotal.WithLabelValues("document").Inc()
		b.handleDocument(ctx, msg)
	default:
		metrics.BotUpdatesTotal.WithLabelValues("text").Inc()
		b.reply(ctx, msg.Chat.ID, msgSendFile)
	}
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID

	switch msg.Command() {
	case startCommand:
		b.batches.Clear(chatID)
		b.sessions.Reset(userID)
		b.reply(ctx, chatID, fmt.Sprintf(
			"Привет! Отправьте файл или файлы экспорта в JSON формате. Размер файла не более %.1f Мб. "+
				"После загрузки используйте команду /export, чтобы получить результат. "+
				"Можно в любой момент ввести /reset, чтобы начать заново.",
			b.files.MaxSizeMB()))
	case helpCommand:
		b.reply(ctx, chatID, fmt.Sprintf(
			"1. Пришлите один или несколько файлов экспорта чата JSON формата.\n"+
				"2. Размер каждого файла не должен превышать %.1f Мб.\n"+
				"3. Введите /export, чтобы получить список участников.\n"+
				"4. Для сброса присланных файлов отправьте /reset, чтобы начать заново.",
			b.files.MaxSizeMB()))
	case resetCommand:
		b.batches.Clear(chatID)
		b.sessions.Reset(userID)
		b.reply(ctx, chatID, msgReset)
	case exportCommand:
		b.handleExport(ctx, msg)
	default:
		b.reply(ctx, chatID, msgUnknownCmd)
	}
}

// handleDocument проверяет документ и добавляет его в пачку чата.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("file", doc.FileName))

	if !b.files.IsSupported(doc) {
		metrics.BotFilesRejected.WithLabelValues("extension").Inc()
		logger.Info("document rejected: unsupported extension")
		b.reply(ctx, chatID, fmt.Sprintf(msgNotJSON, doc.FileName))
		return
	}
	if !b.files.SizeAllowed(doc) {
		metrics.BotFilesRejected.WithLabelValues("size").Inc()
		logger.Info("document rejected: too large", slog.Int("size", doc.FileSize))
		b.reply(ctx, chatID, fmt.Sprintf(msgTooLarge, doc.FileName, b.files.MaxSizeMB()))
		return
	}

	b.sessions.GetOrCreate(msg.From.ID).MarkReceived()
	count := b.batches.Add(chatID, *doc, msg.MessageID, b.cfg.BatchDelay, func(count, replyTo int) {
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgBatch, count))
		reply.ReplyToMessageID = replyTo
		b.send(context.Background(), reply)
	})
	logger.Debug("document added to batch", slog.Int("batch_size", count))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// send отправляет сообщение с учетом ограничения частоты исходящих запросов.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		b.logger.Warn("send cancelled", slog.String("error", err.Error()))
		return
	}
	if _, err := b.sendMessageFunc(c); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.requestFunc(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send chat action", slog.String("error", err.Error()))
	}
}
