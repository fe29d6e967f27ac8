package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const supportedSuffix = ".json"

// FileManager проверяет документы до загрузки: расширение и заявленный размер.
type FileManager struct {
	maxSize int64
}

// NewFileManager создает новый экземпляр FileManager.
func NewFileManager(maxSize int64) *FileManager {
	return &FileManager{maxSize: maxSize}
}

// IsSupported сообщает, похож ли документ на JSON-экспорт.
func (m *FileManager) IsSupported(doc *tgbotapi.Document) bool {
	if doc == nil || doc.FileName == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(doc.FileName), supportedSuffix)
}

// SizeAllowed сообщает, укладывается ли документ в лимит размера.
func (m *FileManager) SizeAllowed(doc *tgbotapi.Document) bool {
	return int64(doc.FileSize) <= m.maxSize
}

// MaxSizeMB возвращает лимит размера в мегабайтах для сообщений пользователю.
func (m *FileManager) MaxSizeMB() float64 {
	return float64(m.maxSize) / (1024 * 1024)
}

// Download скачивает файл по прямой ссылке Bot API. Ответ больше лимита считается ошибкой:
// заявленный размер мог не совпасть с фактическим.
func (m *FileManager) Download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	if int64(len(data)) > m.maxSize {
		return nil, fmt.Errorf("file is larger than %d bytes", m.maxSize)
	}
	return data, nil
}
