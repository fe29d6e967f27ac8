package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MessageText описывает содержимое поля text сообщения: либо простая строка,
// либо последовательность фрагментов. Реализации: PlainText и RichText.
type MessageText interface {
	Flatten() string
	isMessageText()
}

// PlainText: текст сообщения в виде одной строки.
type PlainText string

// RichText: текст сообщения, разбитый на фрагменты.
type RichText []TextFragment

// TextFragment: элемент RichText. Реализации: Literal и Span.
type TextFragment interface {
	fragmentText() string
}

// Literal: простой строковый фрагмент.
type Literal string

// Span: размеченный фрагмент (ссылка, упоминание, форматирование).
type Span struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Href string `json:"href"`
}

func (PlainText) isMessageText() {}
func (RichText) isMessageText()  {}

func (l Literal) fragmentText() string { return string(l) }
func (s Span) fragmentText() string    { return s.Text }

// Flatten возвращает строку как есть.
func (t PlainText) Flatten() string { return string(t) }

// Flatten склеивает фрагменты через пробел.
func (t RichText) Flatten() string {
	parts := make([]string, 0, len(t))
	for _, f := range t {
		parts = append(parts, f.fragmentText())
	}
	return strings.Join(parts, " ")
}

// Spans возвращает только размеченные фрагменты.
func (t RichText) Spans() []Span {
	var spans []Span
	for _, f := range t {
		if s, ok := f.(Span); ok {
			spans = append(spans, s)
		}
	}
	return spans
}

// TextContent: JSON-обертка над MessageText. Value равно nil, если текста нет
// или он имеет неподдерживаемую форму.
type TextContent struct {
	Value MessageText
}

// Flatten возвращает текст сообщения одной строкой.
func (c TextContent) Flatten() string {
	if c.Value == nil {
		return ""
	}
	return c.Value.Flatten()
}

// UnmarshalJSON реализует json.Unmarshaler.
func (c *TextContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	c.Value = nil
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Value = PlainText(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		rich := make(RichText, 0, len(raw))
		for _, item := range raw {
			item = bytes.TrimSpace(item)
			if len(item) == 0 {
				continue
			}
			switch item[0] {
			case '"':
				var s string
				if err := json.Unmarshal(item, &s); err != nil {
					return err
				}
				rich = append(rich, Literal(s))
			case '{':
				var span struct {
					Type FlexString `json:"type"`
					Text FlexString `json:"text"`
					Href FlexString `json:"href"`
				}
				if err := json.Unmarshal(item, &span); err != nil {
					continue
				}
				rich = append(rich, Span{Type: string(span.Type), Text: string(span.Text), Href: string(span.Href)})
			}
		}
		c.Value = rich
	}
	return nil
}
