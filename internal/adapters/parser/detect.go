package parser

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format: формат файла экспорта.
type Format string

const (
	FormatJSON      Format = "json"
	FormatHTML      Format = "html"
	FormatPlainText Format = "text"
)

// DetectFormat определяет формат по расширению имени файла, а если оно
// ничего не говорит: по первому значащему байту содержимого.
func DetectFormat(fileName string, payload []byte) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return FormatJSON
	case ".html", ".htm":
		return FormatHTML
	}

	data := bytes.TrimSpace(bytes.TrimPrefix(payload, utf8BOM))
	switch {
	case bytes.HasPrefix(data, []byte("{")):
		return FormatJSON
	case bytes.HasPrefix(data, []byte("<")):
		return FormatHTML
	default:
		return FormatPlainText
	}
}
