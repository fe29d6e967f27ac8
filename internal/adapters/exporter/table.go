package exporter

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// column описывает колонку моноширинной таблицы.
type column struct {
	title string
	width int
}

// renderTable рисует таблицу с рамкой из | и -. Значения длиннее колонки переносятся по словам.
func renderTable(sb *strings.Builder, columns []column, rows [][]string) {
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.title
	}
	writeTableRow(sb, columns, header)

	for _, c := range columns {
		sb.WriteString("|")
		sb.WriteString(strings.Repeat("-", c.width+2))
	}
	sb.WriteString("|\n")

	for _, row := range rows {
		writeTableRow(sb, columns, row)
	}
}

func writeTableRow(sb *strings.Builder, columns []column, values []string) {
	cells := make([][]string, len(columns))
	height := 1
	for i, c := range columns {
		value := ""
		if i < len(values) {
			value = strings.ReplaceAll(strings.ToValidUTF8(values[i], ""), "\n", " ")
		}
		cells[i] = wrapString(value, c.width)
		if len(cells[i]) > height {
			height = len(cells[i])
		}
	}

	for line := 0; line < height; line++ {
		for i, c := range columns {
			part := ""
			if line < len(cells[i]) {
				part = cells[i][line]
			}
			sb.WriteString("| ")
			sb.WriteString(part)
			sb.WriteString(padding(part, c.width))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}
}

// padding добивает строку пробелами до ширины колонки. Для CJK-символов
// добавляется один лишний пробел: часть терминалов рисует их шире расчетного.
func padding(s string, width int) string {
	needed := width - runewidth.StringWidth(s)
	if needed >= 0 && hasCJK(s) {
		needed++
	}
	if needed > 0 {
		return strings.Repeat(" ", needed)
	}
	return ""
}

func hasCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// wrapString переносит строку по словам так, чтобы каждая часть помещалась в width.
// Слово шире колонки режется посимвольно.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines     []string
		current   strings.Builder
		currWidth int
	)
	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currWidth = 0
		}
	}

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		if wordWidth > width {
			flush()
			lines = append(lines, cutWidth(word, width)...)
			continue
		}
		if currWidth > 0 && currWidth+1+wordWidth > width {
			flush()
		}
		if currWidth > 0 {
			current.WriteByte(' ')
			currWidth++
		}
		current.WriteString(word)
		currWidth += wordWidth
	}
	flush()
	return lines
}

func cutWidth(word string, width int) []string {
	var parts []string
	runes := []rune(word)
	for len(runes) > 0 {
		i, w := 0, 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if w+rw > width {
				break
			}
			w += rw
			i++
		}
		if i == 0 {
			i = 1
		}
		parts = append(parts, string(runes[:i]))
		runes = runes[i:]
	}
	return parts
}
