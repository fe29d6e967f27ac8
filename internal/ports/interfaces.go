package ports

import (
	"chat-export-bot/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Name возвращает имя документа, по которому определяется формат.
	Name() string
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для парсинга данных чата.
type Parser interface {
	// Parse преобразует сырые данные в структурированную модель чата.
	Parse(data []byte) (*domain.ExportedChat, error)
}

// ExtractionService определяет интерфейс для извлечения участников,
// упоминаний и каналов из структуры чата.
type ExtractionService interface {
	Extract(chat *domain.ExportedChat) (*domain.ExtractionResult, error)
}

// DocumentProcessor разбирает один загруженный документ целиком.
type DocumentProcessor interface {
	ParseDocument(fileName string, payload []byte) (*domain.ExtractionResult, error)
}

// SpreadsheetRenderer строит книгу с листами участников, упоминаний и каналов.
type SpreadsheetRenderer interface {
	Render(tables map[domain.Category][]domain.Row) ([]byte, error)
}

// Exporter выводит итоговый список участников.
type Exporter interface {
	Export(records []domain.IdentityRecord) error
}
