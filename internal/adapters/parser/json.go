package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// JsonParser реализует интерфейс Parser для разбора JSON данных.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// Parse преобразует срез байт с JSON в структуру ExportedChat.
// Любая ошибка декодирования возвращается как *domain.FormatError.
func (p *JsonParser) Parse(data []byte) (*domain.ExportedChat, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, domain.NewFormatError(errors.New("payload is not valid utf-8"))
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.NewFormatError(errors.New("top-level json value is not an object"))
	}

	var chat domain.ExportedChat
	if err := json.Unmarshal(trimmed, &chat); err != nil {
		return nil, domain.NewFormatError(fmt.Errorf("failed to unmarshal json: %w", err))
	}
	return &chat, nil
}
