package source

import (
	"fmt"

	"chat-export-bot/internal/ports"
)

// MemorySource реализует интерфейс DataSource для документа, уже загруженного в память
// (вложение Telegram, часть multipart-запроса).
type MemorySource struct {
	name string
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(name string, data []byte) ports.DataSource {
	return &MemorySource{name: name, data: data}
}

// Name возвращает заявленное имя файла.
func (s *MemorySource) Name() string {
	return s.name
}

// Fetch возвращает копию данных.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, fmt.Errorf("data not set")
	}

	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)

	return dataCopy, nil
}
