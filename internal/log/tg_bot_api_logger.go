package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter адаптирует slog.Logger под интерфейс BotLogger библиотеки
// go-telegram-bot-api/v5. Библиотека пишет в лог в основном ошибки long polling,
// поэтому сообщения со словом error уходят на уровень Warn, остальные на Debug.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// NewTGBotAPIAdapter создает адаптер с атрибутом component=tgbotapi.
func NewTGBotAPIAdapter(logger *slog.Logger) *TGBotAPIAdapter {
	return &TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}
}

// Println реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (a *TGBotAPIAdapter) log(msg string) {
	if strings.Contains(strings.ToLower(msg), "error") {
		a.Logger.Warn(msg)
		return
	}
	a.Logger.Debug(msg)
}
