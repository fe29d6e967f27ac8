package domain

import "errors"

// ErrUnsupportedFormat возвращается, когда формат файла распознан, но его разбор не реализован.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// FormatError сообщает, что файл не удалось разобрать как экспорт чата.
// Error() возвращает только текст для пользователя; исходная причина доступна через Unwrap.
type FormatError struct {
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError создает FormatError со стандартным текстом для пользователя.
func NewFormatError(err error) *FormatError {
	return &FormatError{
		Message: "Не удалось разобрать JSON-файл экспорта",
		Err:     err,
	}
}
