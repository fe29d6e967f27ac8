package services

import (
	"sort"
	"strings"
	"time"

	"chat-export-bot/internal/core/identity"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
)

// ExtractionServiceImpl реализует интерфейс ExtractionService.
type ExtractionServiceImpl struct {
	now func() time.Time
}

// NewExtractionService создает новый экземпляр ExtractionServiceImpl.
func NewExtractionService() ports.ExtractionService {
	return &ExtractionServiceImpl{now: time.Now}
}

// Extract извлекает авторов, упоминания и каналы из чата.
// Авторы возвращаются в порядке появления, упоминания и каналы: отсортированными по идентификатору.
func (s *ExtractionServiceImpl) Extract(chat *domain.ExportedChat) (*domain.ExtractionResult, error) {
	exportedAt, known := s.exportedAt(chat)
	result := &domain.ExtractionResult{
		ExportedAt:      exportedAt,
		ExportedAtKnown: known,
	}

	authorIndex := make(map[string]int)
	mentions := make(map[string]struct{})
	channels := make(map[string]struct{})

	for _, msg := range chat.Messages {
		if msg.Type != nil && *msg.Type != "message" && *msg.Type != "service" {
			continue
		}

		sender := firstNonEmpty(msg.From, msg.Actor)
		// Удаленные аккаунты не попадают в участники, но их текст все равно просматривается.
		if !identity.IsDeletedAccount(sender) {
			s.registerAuthor(result, authorIndex, msg, sender)
		}

		msgMentions, msgChannels := identity.ExtractHandles(msg.Text.Flatten())
		addAll(mentions, msgMentions)
		addAll(channels, msgChannels)

		for _, handle := range entityHandles(msg) {
			if strings.HasPrefix(handle, "@") {
				mentions[handle] = struct{}{}
			} else {
				channels[handle] = struct{}{}
			}
		}
	}

	result.Mentions = recordsFromHandles(mentions, false)
	result.Channels = recordsFromHandles(channels, true)
	return result, nil
}

// registerAuthor добавляет отправителя сообщения или обновляет дату его первого появления.
func (s *ExtractionServiceImpl) registerAuthor(result *domain.ExtractionResult, index map[string]int, msg domain.Message, sender string) {
	username := identity.NormalizeUsername(firstNonEmpty(msg.FromUsername, msg.Username))
	fallbackID := string(msg.FromID)
	if fallbackID == "" {
		fallbackID = string(msg.ActorID)
	}
	identifier := identity.BuildIdentifier(username, fallbackID, sender)
	date := identity.NormalizeDate(msg.Date)

	i, seen := index[identifier]
	if !seen {
		index[identifier] = len(result.Participants)
		result.Participants = append(result.Participants, domain.IdentityRecord{
			Identifier:   identifier,
			Username:     username,
			FullName:     sender,
			RegisteredAt: date,
		})
		return
	}

	record := &result.Participants[i]
	if date != "" && (record.RegisteredAt == "" || earlier(date, record.RegisteredAt)) {
		record.RegisteredAt = date
	}
}

// earlier сравнивает нормализованные даты как моменты времени: строки с зоной
// и дробной частью лексикографически упорядочены неверно.
func earlier(a, b string) bool {
	ta, okA := identity.ParseDate(a)
	tb, okB := identity.ParseDate(b)
	if !okA || !okB {
		return a < b
	}
	return ta.Before(tb)
}

// exportedAt ищет дату выгрузки в метаданных файла; если ни одна не разбирается: текущее время.
func (s *ExtractionServiceImpl) exportedAt(chat *domain.ExportedChat) (time.Time, bool) {
	candidates := []string{chat.Date, chat.ExportedAt}
	if chat.DateRange != nil {
		candidates = append(candidates, chat.DateRange.To)
	}
	for _, raw := range candidates {
		if t, ok := identity.ParseDate(raw); ok {
			return t, true
		}
	}
	return s.now().UTC(), false
}

// entityHandles возвращает handles из размеченных сущностей сообщения.
// Если text_entities и entities пусты, используются фрагменты самого текста.
func entityHandles(msg domain.Message) []string {
	entities := msg.TextEntities
	if len(entities) == 0 {
		entities = msg.Entities
	}
	if len(entities) == 0 {
		if rich, ok := msg.Text.Value.(domain.RichText); ok {
			for _, span := range rich.Spans() {
				entities = append(entities, domain.TextEntity{Type: span.Type, Text: span.Text, Href: span.Href})
			}
		}
	}

	var handles []string
	for _, entity := range entities {
		if strings.HasPrefix(entity.Text, "@") {
			handles = append(handles, strings.ToLower(entity.Text))
			continue
		}
		if handle := identity.HandleFromHref(firstNonEmpty(entity.Href, entity.URL)); handle != "" {
			handles = append(handles, handle)
		}
	}
	return handles
}

func recordsFromHandles(handles map[string]struct{}, channel bool) []domain.IdentityRecord {
	sorted := make([]string, 0, len(handles))
	for h := range handles {
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)

	records := make([]domain.IdentityRecord, 0, len(sorted))
	for _, h := range sorted {
		record := domain.IdentityRecord{Identifier: h}
		if channel {
			record.FullName = h
			record.HasChannel = domain.Yes
		} else {
			record.Username = h
		}
		records = append(records, record)
	}
	return records
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range values {
		set[v] = struct{}{}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
