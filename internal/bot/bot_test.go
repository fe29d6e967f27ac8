package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-export-bot/cmd/bot/config"
	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/core/services"
)

const (
	testChatID = int64(123)
	testUserID = int64(42)
)

const (
	chatWithJohn = `{"date": "2024-03-12T10:05:00", "messages": [
		{"id": 1, "type": "message", "date": "2024-01-01T10:00:00", "from": "John Doe",
		 "from_id": "user1", "from_username": "johndoe", "text": "hi @mention_one"}]}`
	chatWithJane = `{"messages": [
		{"id": 1, "type": "message", "date": "2024-01-02T10:00:00", "from": "Jane", "from_id": "user2", "text": "hello"}]}`
	chatEmpty = `{"messages": []}`
)

// recorder собирает все исходящие сообщения бота.
type recorder struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (r *recorder) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

func (r *recorder) all() []tgbotapi.Chattable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), r.sent...)
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var texts []string
	for _, c := range r.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func (r *recorder) documents() []tgbotapi.DocumentConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	var docs []tgbotapi.DocumentConfig
	for _, c := range r.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			docs = append(docs, d)
		}
	}
	return docs
}

func testConfig() config.BotConfig {
	return config.BotConfig{
		MaxSize:         1024,
		InlineThreshold: 50,
		BatchDelay:      50 * time.Millisecond,
		Timezone:        "UTC",
		SendRate:        1000,
		SendBurst:       100,
		DownloadTimeout: time.Second,
	}
}

// newTestBot создает бота без Telegram API: отправка и загрузка файлов подменяются.
func newTestBot(t *testing.T, cfg config.BotConfig, files map[string]string) (*Bot, *recorder) {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, content)
	}))
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := newBot(cfg, services.NewDocumentProcessor(services.WithProcessorLogger(logger)), exporter.NewExcelRenderer(), logger)
	require.NoError(t, err)

	rec := &recorder{}
	b.sendMessageFunc = rec.send
	b.requestFunc = func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) { return &tgbotapi.APIResponse{Ok: true}, nil }
	b.httpClient = ts.Client()
	b.getFileDirectURLFunc = func(fileID string) (string, error) { return ts.URL + "/" + fileID, nil }
	return b, rec
}

func documentMsg(messageID int, fileID, fileName string, size int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: messageID,
		From:      &tgbotapi.User{ID: testUserID},
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Document:  &tgbotapi.Document{FileID: fileID, FileName: fileName, FileSize: size},
	}
}

func commandMsg(command string) *tgbotapi.Message {
	text := "/" + command
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUserID},
		Chat:     &tgbotapi.Chat{ID: testChatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func TestBot_HandleDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Пачка из двух файлов дает одно уведомление", func(t *testing.T) {
		b, rec := newTestBot(t, testConfig(), nil)

		b.handleMessage(ctx, documentMsg(10, "file1", "a.json", 100))
		b.handleMessage(ctx, documentMsg(11, "file2", "b.JSON", 100))

		require.Eventually(t, func() bool { return len(rec.texts()) == 1 }, time.Second, 10*time.Millisecond)
		time.Sleep(100 * time.Millisecond)

		sent := rec.all()
		require.Len(t, sent, 1)
		notice := sent[0].(tgbotapi.MessageConfig)
		assert.Equal(t, "Всего получено 2 файл(а)/(ов) нужного формата.\nДля обработки отправьте /export, для сброса /reset.", notice.Text)
		assert.Equal(t, 10, notice.ReplyToMessageID)
		assert.Equal(t, 2, b.sessions.GetOrCreate(testUserID).Stats().FilesReceived)
	})

	t.Run("Файл не JSON отклоняется", func(t *testing.T) {
		b, rec := newTestBot(t, testConfig(), nil)

		b.handleMessage(ctx, documentMsg(1, "file1", "notes.txt", 10))

		assert.Equal(t, []string{"Файл notes.txt не поддерживается. Нужен файл формата JSON."}, rec.texts())
		assert.Zero(t, b.batches.Len())
	})

	t.Run("Слишком большой файл отклоняется", func(t *testing.T) {
		b, rec := newTestBot(t, testConfig(), nil)

		b.handleMessage(ctx, documentMsg(1, "file1", "big.json", 2048))

		require.Len(t, rec.texts(), 1)
		assert.Contains(t, rec.texts()[0], "Его размер превышает 0.0 Мб")
		assert.Zero(t, b.batches.Len())
		assert.Zero(t, b.sessions.GetOrCreate(testUserID).Stats().FilesReceived)
	})

	t.Run("Сброс до срабатывания таймера отменяет уведомление", func(t *testing.T) {
		b, rec := newTestBot(t, testConfig(), nil)

		b.handleMessage(ctx, documentMsg(1, "file1", "a.json", 10))
		b.handleMessage(ctx, commandMsg(resetCommand))
		time.Sleep(150 * time.Millisecond)

		assert.Equal(t, []string{msgReset}, rec.texts())
		assert.Zero(t, b.batches.Len())
	})
}

func TestBot_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("Без файлов", func(t *testing.T) {
		b, rec := newTestBot(t, testConfig(), nil)

		b.handleMessage(ctx, commandMsg(exportCommand))

		assert.Equal(t, []string{msgNoFiles}, rec.texts())
	})

	t.Run("Текстовый ответ и пропуск битого файла", func(t *testing.T) {
		cfg := testConfig()
		cfg.BatchDelay = time.Hour
		b, rec := newTestBot(t, cfg, map[string]string{
			"good":   chatWithJohn,
			"broken": "{not json",
			"jane":   chatWithJane,
		})

		b.handleMessage(ctx, documentMsg(1, "good", "good.json", 10))
		b.handleMessage(ctx, documentMsg(2, "broken", "broken.json", 10))
		b.handleMessage(ctx, documentMsg(3, "jane", "jane.json", 10))
		b.handleMessage(ctx, commandMsg(exportCommand))

		assert.Equal(t, []string{
			msgProcessing,
			"Файл broken.json пропущен: Не удалось разобрать JSON-файл экспорта",
			"Уникальные участники (2):\n1. @johndoe (John Doe)\n2. Jane",
		}, rec.texts())

		assert.Zero(t, b.batches.Len())
		assert.Zero(t, b.sessions.GetOrCreate(testUserID).Stats().Participants)
		assert.Zero(t, b.sessions.GetOrCreate(testUserID).Stats().FilesReceived)
	})

	t.Run("Excel при достижении порога", func(t *testing.T) {
		cfg := testConfig()
		cfg.BatchDelay = time.Hour
		cfg.InlineThreshold = 1
		b, rec := newTestBot(t, cfg, map[string]string{"good": chatWithJohn})

		b.handleMessage(ctx, documentMsg(1, "good", "good.json", 10))
		b.handleMessage(ctx, commandMsg(exportCommand))

		docs := rec.documents()
		require.Len(t, docs, 1)
		assert.Equal(t, msgExcelCaption, docs[0].Caption)
		file, ok := docs[0].File.(tgbotapi.FileBytes)
		require.True(t, ok)
		assert.Equal(t, "participants_20240312_100500.xlsx", file.Name)
		assert.NotEmpty(t, file.Bytes)
	})

	t.Run("Пустой результат сбрасывает сессию", func(t *testing.T) {
		cfg := testConfig()
		cfg.BatchDelay = time.Hour
		b, rec := newTestBot(t, cfg, map[string]string{"empty": chatEmpty})

		b.handleMessage(ctx, documentMsg(1, "empty", "empty.json", 10))
		b.handleMessage(ctx, commandMsg(exportCommand))

		assert.Equal(t, []string{msgProcessing, msgEmptyResult}, rec.texts())
		assert.Zero(t, b.batches.Len())
		assert.Zero(t, b.sessions.GetOrCreate(testUserID).Stats().FilesReceived)
	})

	t.Run("Ошибка загрузки не мешает остальным файлам", func(t *testing.T) {
		cfg := testConfig()
		cfg.BatchDelay = time.Hour
		b, rec := newTestBot(t, cfg, map[string]string{"good": chatWithJohn})

		b.handleMessage(ctx, documentMsg(1, "missing", "missing.json", 10))
		b.handleMessage(ctx, documentMsg(2, "good", "good.json", 10))
		b.handleMessage(ctx, commandMsg(exportCommand))

		texts := rec.texts()
		require.Len(t, texts, 3)
		assert.Equal(t, "Не удалось скачать файл missing.json. Попробуйте отправить его еще раз.", texts[1])
		assert.Equal(t, "Уникальные участники (1):\n1. @johndoe (John Doe)", texts[2])
	})
}

func TestBot_Commands(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBot(t, testConfig(), nil)

	b.handleMessage(ctx, commandMsg(startCommand))
	b.handleMessage(ctx, commandMsg(helpCommand))
	b.handleMessage(ctx, commandMsg("unknown"))
	b.handleMessage(ctx, &tgbotapi.Message{From: &tgbotapi.User{ID: testUserID}, Chat: &tgbotapi.Chat{ID: testChatID}, Text: "hello"})

	texts := rec.texts()
	require.Len(t, texts, 4)
	assert.True(t, strings.HasPrefix(texts[0], "Привет!"))
	assert.Contains(t, texts[1], "/export")
	assert.Equal(t, msgUnknownCmd, texts[2])
	assert.Equal(t, msgSendFile, texts[3])
}
