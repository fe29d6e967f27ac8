package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"chat-export-bot/internal/core/output"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода участников в терминал.
type ConsoleExporter struct {
	w     io.Writer
	table bool
	width int
}

// ConsoleOption настраивает ConsoleExporter.
type ConsoleOption func(*ConsoleExporter)

// WithTable включает табличный вывод, рассчитанный на ширину терминала width.
func WithTable(width int) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.table = true
		e.width = width
	}
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(w io.Writer, opts ...ConsoleOption) ports.Exporter {
	e := &ConsoleExporter{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export выводит нумерованный список участников или таблицу.
func (e *ConsoleExporter) Export(records []domain.IdentityRecord) error {
	var text string
	if e.table {
		text = e.renderTable(records)
	} else {
		text = output.InlineText(records) + "\n"
	}

	if _, err := io.WriteString(e.w, text); err != nil {
		return fmt.Errorf("failed to write participants: %w", err)
	}
	return nil
}

func (e *ConsoleExporter) renderTable(records []domain.IdentityRecord) string {
	columns := tableColumns(e.width)
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Username, r.FullName, r.RegisteredAt})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Уникальные участники (%d):\n", len(records))
	renderTable(&sb, columns, rows)
	return sb.String()
}

// tableColumns распределяет ширину терминала между колонками. Номер и дата
// фиксированы, остаток делится между username и именем.
func tableColumns(termWidth int) []column {
	const (
		indexWidth = 4
		dateWidth  = 19
		minFlex    = 12
		borders    = 4*3 + 1
	)

	flex := (termWidth - borders - indexWidth - dateWidth) / 2
	if flex < minFlex {
		flex = minFlex
	}
	return []column{
		{title: "#", width: indexWidth},
		{title: output.Columns[1], width: flex},
		{title: output.Columns[2], width: flex},
		{title: output.Columns[4], width: dateWidth},
	}
}
