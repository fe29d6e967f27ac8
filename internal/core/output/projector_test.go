package output

import (
	"strings"
	"testing"
	"unicode/utf8"

	"chat-export-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		threshold int
		expected  Mode
	}{
		{"меньше порога", 49, 50, ModeInline},
		{"равно порогу", 50, 50, ModeSpreadsheet},
		{"больше порога", 51, 50, ModeSpreadsheet},
		{"ноль участников", 0, 50, ModeInline},
		{"нулевой порог", 0, 0, ModeSpreadsheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Choose(tt.total, tt.threshold))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "@john (John Doe)", Label(domain.IdentityRecord{Identifier: "@john", Username: "@john", FullName: "John Doe"}))
	assert.Equal(t, "@john (без имени)", Label(domain.IdentityRecord{Identifier: "@john", Username: "@john"}))
	assert.Equal(t, "Jane", Label(domain.IdentityRecord{Identifier: "jane", FullName: "Jane"}))
	assert.Equal(t, "unknown", Label(domain.IdentityRecord{Identifier: "unknown"}))
}

func TestInlineText(t *testing.T) {
	text := InlineText([]domain.IdentityRecord{
		{Identifier: "@alice", Username: "@alice", FullName: "Alice"},
		{Identifier: "bob", FullName: "Bob"},
	})

	assert.Equal(t, "Уникальные участники (2):\n1. @alice (Alice)\n2. Bob", text)
	assert.Equal(t, "Уникальные участники (0):", InlineText(nil))
}

func TestSheetTitle(t *testing.T) {
	assert.Equal(t, "Участники", SheetTitle("participants"))
	assert.Equal(t, "Упоминания", SheetTitle("mentions"))
	assert.Equal(t, "Каналы", SheetTitle("channels"))
	assert.Equal(t, "Other Stuff", SheetTitle("other stuff"))
	assert.Equal(t, "Bots_Extra", SheetTitle("bots_extra"))
	assert.Len(t, Columns, 6)
}

func TestSplitMessage(t *testing.T) {
	t.Run("Короткий текст не режется", func(t *testing.T) {
		assert.Equal(t, []string{"abc\ndef"}, SplitMessage("abc\ndef", 10))
	})

	t.Run("Режется по границам строк", func(t *testing.T) {
		parts := SplitMessage("aaa\nbbb\nccc", 7)
		assert.Equal(t, []string{"aaa\nbbb", "ccc"}, parts)
	})

	t.Run("Слишком длинная строка режется посимвольно", func(t *testing.T) {
		parts := SplitMessage("абвгдеж\nxy", 3)
		assert.Equal(t, []string{"абв", "где", "ж", "xy"}, parts)
	})

	t.Run("Пустые строки в начале части сохраняются", func(t *testing.T) {
		text := "aaa\n\n\nbbb\n\nc"
		parts := SplitMessage(text, 4)
		assert.Equal(t, []string{"aaa\n", "\nbbb", "\nc"}, parts)
		assert.Equal(t, text, strings.Join(parts, "\n"))
	})

	t.Run("Длина считается в единицах UTF-16", func(t *testing.T) {
		// каждый эмодзи занимает две единицы UTF-16
		text := "😀😀\n😀😀"
		parts := SplitMessage(text, 5)
		assert.Equal(t, []string{"😀😀", "😀😀"}, parts)

		parts = SplitMessage("😀😀😀", 4)
		assert.Equal(t, []string{"😀😀", "😀"}, parts)
	})

	t.Run("Части укладываются в лимит и склеиваются обратно", func(t *testing.T) {
		records := make([]domain.IdentityRecord, 0, 500)
		for i := 0; i < 500; i++ {
			name := strings.Repeat("я", 20)
			records = append(records, domain.IdentityRecord{Identifier: name, FullName: name})
		}
		text := InlineText(records)

		parts := SplitMessage(text, TelegramMessageLimit)
		require.Greater(t, len(parts), 1)
		for _, p := range parts {
			assert.LessOrEqual(t, utf8.RuneCountInString(p), TelegramMessageLimit)
		}
		assert.Equal(t, text, strings.Join(parts, "\n"))
	})
}
