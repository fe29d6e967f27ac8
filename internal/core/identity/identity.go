// Package identity приводит имена пользователей, ссылки и даты из экспорта
// к каноническому виду, пригодному для дедупликации.
package identity

import (
	"regexp"
	"strings"
	"time"
)

// unknownIdentifier используется, когда о записи не известно ничего.
const unknownIdentifier = "unknown"

var (
	mentionRegexp     = regexp.MustCompile(`@([A-Za-z0-9_]{5,})`)
	channelLinkRegexp = regexp.MustCompile(`(?i)(?:https?://)?t\.me/([A-Za-z0-9_]+)`)
)

// deletedAccountMarkers: подстроки имени удаленного аккаунта в разных локализациях клиента.
var deletedAccountMarkers = []string{"deleted account", "удалённый", "удаленный"}

// NormalizeUsername обрезает пробелы и добавляет ведущий '@'.
// Пустое после обрезки значение считается отсутствующим.
func NormalizeUsername(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "@") {
		value = "@" + value
	}
	return value
}

// BuildIdentifier строит канонический ключ записи.
// Приоритет: username, затем "{fallbackID}:{полное имя}", затем полное имя или "unknown".
func BuildIdentifier(username, fallbackID, fullName string) string {
	if username != "" {
		return strings.ToLower(username)
	}
	if fallbackID != "" {
		return fallbackID + ":" + strings.ToLower(fullName)
	}
	if fullName == "" {
		return unknownIdentifier
	}
	return strings.ToLower(fullName)
}

// IsDeletedAccount сообщает, является ли имя отправителя маркером удаленного аккаунта.
func IsDeletedAccount(name string) bool {
	if name == "" {
		return false
	}
	lowered := strings.ToLower(name)
	for _, marker := range deletedAccountMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// ExtractHandles находит в тексте упоминания (@handle, не короче 5 символов)
// и ссылки на каналы (t.me/handle). Результат в нижнем регистре, возможны повторы.
func ExtractHandles(text string) (mentions, channels []string) {
	if text == "" {
		return nil, nil
	}
	for _, m := range mentionRegexp.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, "@"+strings.ToLower(m[1]))
	}
	for _, m := range channelLinkRegexp.FindAllStringSubmatch(text, -1) {
		channels = append(channels, "t.me/"+strings.ToLower(m[1]))
	}
	return mentions, channels
}

// HandleFromHref извлекает handle из ссылки сущности: "@name" возвращается как есть
// (в нижнем регистре), иначе ищется t.me/<handle>. Пустая строка: ничего не найдено.
func HandleFromHref(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "@") {
		return strings.ToLower(href)
	}
	if m := channelLinkRegexp.FindStringSubmatch(href); m != nil {
		return "t.me/" + strings.ToLower(m[1])
	}
	return ""
}

const (
	naiveLayout  = "2006-01-02T15:04:05"
	legacyLayout = "02.01.2006 15:04:05"
)

// Раскладки ISO-8601 без часового пояса.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate разбирает дату экспорта: сначала ISO-8601, затем "дд.мм.гггг ЧЧ:ММ:СС".
// Даты без часового пояса считаются UTC.
func ParseDate(raw string) (time.Time, bool) {
	t, _, ok := parseDate(raw)
	return t, ok
}

// NormalizeDate возвращает дату в каноническом ISO-8601 виде или пустую строку,
// если ее не удалось разобрать. Даты с часовым поясом приводятся к UTC.
// Дробная часть, если она есть, всегда выводится шестью цифрами.
func NormalizeDate(raw string) string {
	t, zoned, ok := parseDate(raw)
	if !ok {
		return ""
	}
	if zoned {
		return t.UTC().Format(isoLayout(t, time.RFC3339))
	}
	return t.Format(isoLayout(t, naiveLayout))
}

func isoLayout(t time.Time, base string) string {
	if t.Nanosecond() == 0 {
		return base
	}
	if base == time.RFC3339 {
		return "2006-01-02T15:04:05.000000Z07:00"
	}
	return base + ".000000"
}

func parseDate(raw string) (time.Time, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, false, true
		}
	}
	if t, err := time.Parse(legacyLayout, raw); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}
