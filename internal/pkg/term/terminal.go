// Package term определяет, выводится ли результат в интерактивный терминал.
package term

import (
	"os"

	"golang.org/x/term"
)

// minTableWidth: ширина, при которой табличный вывод еще читается.
const minTableWidth = 40

// TableWidth возвращает ширину терминала, если f: терминал достаточной ширины для таблицы.
func TableWidth(f *os.File) (int, bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < minTableWidth {
		return 0, false
	}
	return width, true
}
