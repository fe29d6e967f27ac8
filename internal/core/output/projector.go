// Package output выбирает форму ответа и готовит данные для отображения.
package output

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"chat-export-bot/internal/domain"
)

// Mode: форма ответа пользователю.
type Mode int

const (
	ModeInline Mode = iota
	ModeSpreadsheet
)

// String реализует fmt.Stringer.
func (m Mode) String() string {
	if m == ModeInline {
		return "inline"
	}
	return "spreadsheet"
}

// DefaultThreshold: порог переключения на табличную выгрузку по умолчанию.
const DefaultThreshold = 50

// TelegramMessageLimit: максимальная длина текстового сообщения Telegram в символах.
const TelegramMessageLimit = 4096

// Columns: заголовки шести колонок табличной выгрузки.
var Columns = []string{
	"Дата экспорта",
	"Username",
	"Имя и фамилия",
	"Описание",
	"Дата регистрации",
	"Наличие канала",
}

var sheetTitles = map[string]string{
	string(domain.CategoryParticipants): "Участники",
	string(domain.CategoryMentions):     "Упоминания",
	string(domain.CategoryChannels):     "Каналы",
}

// Choose выбирает форму ответа. Строго меньше порога означает текст, иначе таблица.
func Choose(total, threshold int) Mode {
	if total < threshold {
		return ModeInline
	}
	return ModeSpreadsheet
}

// Label возвращает подпись участника для текстового ответа.
func Label(r domain.IdentityRecord) string {
	if r.Username != "" {
		name := r.FullName
		if name == "" {
			name = "без имени"
		}
		return fmt.Sprintf("%s (%s)", r.Username, name)
	}
	if r.FullName != "" {
		return r.FullName
	}
	return r.Identifier
}

// InlineText строит нумерованный список участников. Записи ожидаются уже отсортированными.
func InlineText(records []domain.IdentityRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Уникальные участники (%d):", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "\n%d. %s", i+1, Label(r))
	}
	return b.String()
}

// SheetTitle возвращает локализованное название листа. Для неизвестных ключей
// каждое слово начинается с заглавной буквы.
func SheetTitle(key string) string {
	if title, ok := sheetTitles[key]; ok {
		return title
	}
	return titleCase(key)
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// SplitMessage режет текст на части не длиннее limit по границам строк. Длина
// считается в единицах UTF-16, как ее считает Telegram. Строка, которая сама
// длиннее limit, режется посимвольно. Пустые строки сохраняются, поэтому части,
// склеенные через "\n", дают исходный текст, если резать строки не пришлось.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
		started bool // в текущей части уже есть хотя бы одна строка, пусть и пустая
	)
	flush := func() {
		if started {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
			started = false
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lineSize := utf16Len(line)
		for lineSize > limit {
			flush()
			head, tail := cutUTF16(line, limit)
			parts = append(parts, head)
			line = tail
			lineSize = utf16Len(line)
		}

		needed := lineSize
		if started {
			needed++
		}
		if size+needed > limit {
			flush()
			needed = lineSize
		}
		if started {
			current.WriteByte('\n')
		}
		current.WriteString(line)
		size += needed
		started = true
	}
	flush()
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// cutUTF16 отрезает от s префикс длиной не больше limit, не разрывая суррогатные пары.
func cutUTF16(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if n+w > limit {
			if i == 0 {
				_, size := utf8.DecodeRuneInString(s)
				return s[:size], s[size:]
			}
			return s[:i], s[i:]
		}
		n += w
	}
	return s, ""
}
