package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chat-export-bot/internal/ports"
)

// ErrFileTooLarge возвращается, если файл превышает допустимый размер.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// CliSource реализует интерфейс DataSource для чтения файла экспорта,
// указанного в командной строке.
type CliSource struct {
	filePath string
	maxSize  int64
}

// NewCliSource создает новый экземпляр CliSource. maxSize <= 0 отключает проверку размера.
func NewCliSource(filePath string, maxSize int64) ports.DataSource {
	return &CliSource{filePath: filePath, maxSize: maxSize}
}

// Name возвращает имя файла без каталога.
func (s *CliSource) Name() string {
	return filepath.Base(s.filePath)
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *CliSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	info, err := os.Stat(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", s.filePath, err)
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", s.filePath, ErrFileTooLarge, info.Size(), s.maxSize)
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return data, nil
}
