// Package session накапливает результаты разбора нескольких файлов одного пользователя.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/metrics"
)

// Stats: снимок счетчиков сессии.
type Stats struct {
	Participants   int        `json:"participants"`
	Mentions       int        `json:"mentions"`
	Channels       int        `json:"channels"`
	FilesProcessed int        `json:"files_processed"`
	FilesReceived  int        `json:"files_received"`
	LastExportedAt *time.Time `json:"last_exported_at,omitempty"`
}

// Session: изменяемое состояние агрегации одного пользователя.
// Объединение идет только добавлением ранее не встречавшихся идентификаторов,
// поэтому порядок и повторность слияний не влияют на итоговые наборы записей.
type Session struct {
	mu             sync.Mutex
	records        map[domain.Category]map[string]domain.IdentityRecord
	filesProcessed int
	filesReceived  int
	lastExportedAt *time.Time
	lastActivity   time.Time
	now            func() time.Time
}

// New создает пустую сессию.
func New() *Session {
	s := &Session{now: time.Now}
	s.clear()
	s.lastActivity = s.now()
	return s
}

func (s *Session) clear() {
	s.records = make(map[domain.Category]map[string]domain.IdentityRecord, 3)
	for _, c := range domain.Categories() {
		s.records[c] = make(map[string]domain.IdentityRecord)
	}
	s.filesProcessed = 0
	s.filesReceived = 0
	s.lastExportedAt = nil
}

// Merge добавляет записи результата, идентификаторы которых еще не встречались,
// и возвращает количество новых записей по категориям.
// Дата последней выгрузки перезаписывается значением из result.
func (s *Session) Merge(result *domain.ExtractionResult) map[domain.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make(map[domain.Category]int, 3)
	for _, c := range domain.Categories() {
		bucket := s.records[c]
		for _, record := range result.Records(c) {
			if _, exists := bucket[record.Identifier]; exists {
				continue
			}
			bucket[record.Identifier] = record
			added[c]++
		}
		if added[c] > 0 {
			metrics.IdentitiesMerged.WithLabelValues(string(c)).Add(float64(added[c]))
		}
	}

	s.filesProcessed++
	exportedAt := result.ExportedAt
	s.lastExportedAt = &exportedAt
	s.lastActivity = s.now()
	return added
}

// MarkReceived учитывает принятый к обработке документ.
func (s *Session) MarkReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesReceived++
	s.lastActivity = s.now()
}

// Reset возвращает сессию в начальное пустое состояние.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.lastActivity = s.now()
}

// Stats возвращает снимок счетчиков.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Participants:   len(s.records[domain.CategoryParticipants]),
		Mentions:       len(s.records[domain.CategoryMentions]),
		Channels:       len(s.records[domain.CategoryChannels]),
		FilesProcessed: s.filesProcessed,
		FilesReceived:  s.filesReceived,
	}
	if s.lastExportedAt != nil {
		t := *s.lastExportedAt
		stats.LastExportedAt = &t
	}
	return stats
}

// LastActivity возвращает время последнего изменения сессии.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Records возвращает отсортированную копию записей категории.
func (s *Session) Records(c domain.Category) []domain.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRecords(c, s.records[c])
}

// Participants возвращает участников, отсортированных по username или имени.
func (s *Session) Participants() []domain.IdentityRecord {
	return s.Records(domain.CategoryParticipants)
}

// AsRows строит табличное представление всех категорий. Дата выгрузки берется
// из exportedAt, иначе из последнего слитого файла, иначе текущее время.
func (s *Session) AsRows(exportedAt *time.Time) map[domain.Category][]domain.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	var at time.Time
	switch {
	case exportedAt != nil:
		at = *exportedAt
	case s.lastExportedAt != nil:
		at = *s.lastExportedAt
	default:
		at = s.now().UTC()
	}

	tables := make(map[domain.Category][]domain.Row, 3)
	for _, c := range domain.Categories() {
		records := sortedRecords(c, s.records[c])
		rows := make([]domain.Row, 0, len(records))
		for _, r := range records {
			rows = append(rows, domain.NewRow(r, at))
		}
		tables[c] = rows
	}
	return tables
}

// sortedRecords сортирует участников и упоминания по отображаемому имени без учета регистра.
// У каналов порядок не задан, для стабильного вывода они идут по идентификатору.
func sortedRecords(c domain.Category, bucket map[string]domain.IdentityRecord) []domain.IdentityRecord {
	records := make([]domain.IdentityRecord, 0, len(bucket))
	for _, r := range bucket {
		records = append(records, r)
	}

	if c == domain.CategoryChannels {
		sort.Slice(records, func(i, j int) bool {
			return records[i].Identifier < records[j].Identifier
		})
		return records
	}

	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := strings.ToLower(records[i].SortKey()), strings.ToLower(records[j].SortKey())
		if ki != kj {
			return ki < kj
		}
		return records[i].Identifier < records[j].Identifier
	})
	return records
}
