package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// ExportedChat представляет корневую структуру файла экспорта.
// Скалярные поля читаются нестрого: значение неподходящего типа считается отсутствующим.
type ExportedChat struct {
	Name       string
	Type       string
	Date       string
	ExportedAt string
	DateRange  *DateRange
	Messages   MessageList
}

// DateRange описывает диапазон дат, за который выгружена история.
type DateRange struct {
	From string
	To   string
}

type chatWire struct {
	Name       FlexString      `json:"name"`
	Type       FlexString      `json:"type"`
	Date       FlexString      `json:"date"`
	ExportedAt FlexString      `json:"exported_at"`
	DateRange  json.RawMessage `json:"date_range"`
	Messages   MessageList     `json:"messages"`
}

// UnmarshalJSON реализует json.Unmarshaler.
func (c *ExportedChat) UnmarshalJSON(data []byte) error {
	var w chatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = ExportedChat{
		Name:       string(w.Name),
		Type:       string(w.Type),
		Date:       string(w.Date),
		ExportedAt: string(w.ExportedAt),
		Messages:   w.Messages,
	}

	var dr struct {
		From FlexString `json:"from"`
		To   FlexString `json:"to"`
	}
	if isObject(w.DateRange) && json.Unmarshal(w.DateRange, &dr) == nil {
		c.DateRange = &DateRange{From: string(dr.From), To: string(dr.To)}
	}
	return nil
}

// MessageList: список сообщений экспорта. Элементы, не являющиеся объектами
// или не разобравшиеся как сообщение, пропускаются.
type MessageList []Message

// UnmarshalJSON реализует json.Unmarshaler.
func (l *MessageList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		if !isObject(item) {
			continue
		}
		var msg Message
		if err := json.Unmarshal(item, &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	*l = messages
	return nil
}

// Message представляет одно сообщение в чате.
type Message struct {
	Type         *string // nil, если поле отсутствует или равно null
	Date         string
	From         string
	FromID       FlexString
	FromUsername string
	Username     string
	Actor        string
	ActorID      FlexString
	Text         TextContent
	TextEntities []TextEntity
	Entities     []TextEntity
}

type messageWire struct {
	Type         json.RawMessage `json:"type"`
	Date         FlexString      `json:"date"`
	From         FlexString      `json:"from"`
	FromID       FlexString      `json:"from_id"`
	FromUsername FlexString      `json:"from_username"`
	Username     FlexString      `json:"username"`
	Actor        FlexString      `json:"actor"`
	ActorID      FlexString      `json:"actor_id"`
	Text         TextContent     `json:"text"`
	TextEntities json.RawMessage `json:"text_entities"`
	Entities     json.RawMessage `json:"entities"`
}

// UnmarshalJSON реализует json.Unmarshaler. Поля неподходящего типа не делают
// сообщение ошибочным: строки и id читаются как FlexString, type не-строкой
// становится пустым (такое сообщение потом отфильтруется).
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{
		Type:         messageType(w.Type),
		Date:         string(w.Date),
		From:         string(w.From),
		FromID:       w.FromID,
		FromUsername: string(w.FromUsername),
		Username:     string(w.Username),
		Actor:        string(w.Actor),
		ActorID:      w.ActorID,
		Text:         w.Text,
		TextEntities: entityList(w.TextEntities),
		Entities:     entityList(w.Entities),
	}
	return nil
}

func messageType(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var t string
	if err := json.Unmarshal(raw, &t); err != nil {
		t = ""
	}
	return &t
}

// entityList разбирает массив сущностей, пропуская элементы, не являющиеся объектами.
func entityList(raw json.RawMessage) []TextEntity {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	entities := make([]TextEntity, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}
		var e struct {
			Type FlexString `json:"type"`
			Text FlexString `json:"text"`
			Href FlexString `json:"href"`
			URL  FlexString `json:"url"`
		}
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		entities = append(entities, TextEntity{Type: string(e.Type), Text: string(e.Text), Href: string(e.Href), URL: string(e.URL)})
	}
	return entities
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// TextEntity представляет "богатую" часть текста (упоминание, ссылка и т.д.).
type TextEntity struct {
	Type string
	Text string
	Href string
	URL  string
}

// FlexString принимает из JSON строку или число. Остальные значения
// (null, bool, объект, массив) читаются как пустая строка.
type FlexString string

// UnmarshalJSON реализует json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = ""
	if len(data) == 0 {
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
	case c == '-' || (c >= '0' && c <= '9'):
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return err
		}
		*s = FlexString(num.String())
	}
	return nil
}

// Tristate: логическое значение с третьим состоянием "неизвестно".
type Tristate int8

const (
	Unknown Tristate = iota
	Yes
	No
)

// TristateOf переводит bool в Tristate.
func TristateOf(v bool) Tristate {
	if v {
		return Yes
	}
	return No
}

// Label возвращает локализованное текстовое представление.
func (t Tristate) Label() string {
	switch t {
	case Yes:
		return "Да"
	case No:
		return "Нет"
	default:
		return "Неизвестно"
	}
}

// MarshalJSON кодирует Unknown как null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// IdentityRecord описывает одну дедуплицированную запись: участника, упоминание или канал.
// Пустая строка в необязательных полях означает отсутствие значения.
type IdentityRecord struct {
	Identifier   string   `json:"identifier"`
	Username     string   `json:"username,omitempty"`
	FullName     string   `json:"full_name,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	RegisteredAt string   `json:"registered_at,omitempty"`
	HasChannel   Tristate `json:"has_channel"`
}

// SortKey возвращает ключ сортировки для вывода: username, иначе полное имя.
func (r IdentityRecord) SortKey() string {
	if r.Username != "" {
		return r.Username
	}
	return r.FullName
}

// ExtractionResult: результат разбора одного файла.
type ExtractionResult struct {
	ExportedAt time.Time
	// ExportedAtKnown ложно, если дата выгрузки не нашлась в файле и взято текущее время.
	ExportedAtKnown bool

	Participants []IdentityRecord
	Mentions     []IdentityRecord
	Channels     []IdentityRecord
}

// Category: одна из трех коллекций идентичностей.
type Category string

const (
	CategoryParticipants Category = "participants"
	CategoryMentions     Category = "mentions"
	CategoryChannels     Category = "channels"
)

// Categories возвращает категории в порядке вывода.
func Categories() []Category {
	return []Category{CategoryParticipants, CategoryMentions, CategoryChannels}
}

// Records возвращает записи результата для указанной категории.
func (r *ExtractionResult) Records(c Category) []IdentityRecord {
	switch c {
	case CategoryParticipants:
		return r.Participants
	case CategoryMentions:
		return r.Mentions
	case CategoryChannels:
		return r.Channels
	default:
		return nil
	}
}

// Row: плоская строка табличного вывода с фиксированным набором из шести колонок.
type Row struct {
	ExportDate   string `json:"export_date"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Bio          string `json:"bio"`
	RegisteredAt string `json:"registered_at"`
	HasChannel   string `json:"has_channel"`
}

// NewRow строит строку вывода для записи.
func NewRow(r IdentityRecord, exportedAt time.Time) Row {
	return Row{
		ExportDate:   exportedAt.Format(IsoLayout(exportedAt)),
		Username:     r.Username,
		FullName:     r.FullName,
		Bio:          r.Bio,
		RegisteredAt: r.RegisteredAt,
		HasChannel:   r.HasChannel.Label(),
	}
}

// Values возвращает значения колонок в фиксированном порядке.
func (r Row) Values() []string {
	return []string{r.ExportDate, r.Username, r.FullName, r.Bio, r.RegisteredAt, r.HasChannel}
}

// IsoLayout подбирает ISO-8601 раскладку: дробные секунды выводятся шестью цифрами и только если они есть.
func IsoLayout(t time.Time) string {
	if t.Nanosecond() != 0 {
		return "2006-01-02T15:04:05.000000Z07:00"
	}
	return time.RFC3339
}
