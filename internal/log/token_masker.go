// Package log собирает slog-логгеры сервиса. Все обработчики оборачиваются
// в маскировщик, чтобы токен бота не попадал в журналы.
package log

import (
	"context"
	"log/slog"
	"regexp"
)

const tokenMask = "***masked-token***"

// Токен встречается в URL запросов к Bot API (bot<id>:<secret>) и в чистом виде
// в сообщениях о конфигурации (<id>:<secret>).
var (
	urlTokenRegex  = regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`)
	bareTokenRegex = regexp.MustCompile(`\b\d{6,}:[A-Za-z0-9_-]{35,}`)
)

func maskTokens(text string) string {
	text = urlTokenRegex.ReplaceAllString(text, "bot***:"+tokenMask)
	return bareTokenRegex.ReplaceAllString(text, "***:"+tokenMask)
}

// TokenMaskerHandler оборачивает slog.Handler и маскирует токены в сообщении и атрибутах.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает обработчик с маскировкой токенов.
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{handler: handler}
}

// Enabled реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler. Исходная запись не изменяется:
// slog может переиспользовать ее, поэтому атрибуты переносятся в новую запись.
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &TokenMaskerHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{handler: h.handler.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
}

func maskValue(value slog.Value) slog.Value {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, a := range group {
			masked[i] = maskAttr(a)
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}
