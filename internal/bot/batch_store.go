package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fileBatch: документы, присланные в чат и еще не обработанные командой /export.
type fileBatch struct {
	docs    []tgbotapi.Document
	replyTo int // сообщение, на которое отвечает уведомление о пачке
	timer   *time.Timer
	gen     uint64
}

// BatchStore: потокобезопасное хранилище пачек документов по идентификатору чата.
// Каждый новый документ переносит отложенное уведомление о пачке (debounce).
type BatchStore struct {
	mu      sync.Mutex
	batches map[int64]*fileBatch
}

// NewBatchStore создает новый экземпляр BatchStore.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		batches: make(map[int64]*fileBatch),
	}
}

// Add добавляет документ в пачку чата и перезапускает таймер уведомления.
// notify вызывается из отдельной горутины через delay после последнего документа
// и получает размер пачки на момент срабатывания. Возвращает размер пачки.
func (s *BatchStore) Add(chatID int64, doc tgbotapi.Document, messageID int, delay time.Duration, notify func(count, replyTo int)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[chatID]
	if !ok {
		batch = &fileBatch{replyTo: messageID}
		s.batches[chatID] = batch
	}
	batch.docs = append(batch.docs, doc)

	// Результат Stop не важен: уже сработавший таймер отсекается по поколению.
	if batch.timer != nil {
		batch.timer.Stop()
	}
	batch.gen++
	gen := batch.gen
	batch.timer = time.AfterFunc(delay, func() {
		count, replyTo, current := s.snapshot(chatID, gen)
		if current && count > 0 {
			notify(count, replyTo)
		}
	})

	return len(batch.docs)
}

func (s *BatchStore) snapshot(chatID int64, gen uint64) (count, replyTo int, current bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[chatID]
	if !ok || batch.gen != gen {
		return 0, 0, false
	}
	return len(batch.docs), batch.replyTo, true
}

// Documents возвращает копию документов пачки. Пачка остается на месте.
func (s *BatchStore) Documents(chatID int64) ([]tgbotapi.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[chatID]
	if !ok || len(batch.docs) == 0 {
		return nil, false
	}
	docs := make([]tgbotapi.Document, len(batch.docs))
	copy(docs, batch.docs)
	return docs, true
}

// Clear удаляет пачку чата и отменяет ее уведомление.
func (s *BatchStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch, ok := s.batches[chatID]; ok {
		if batch.timer != nil {
			batch.timer.Stop()
		}
		delete(s.batches, chatID)
	}
}

// Len возвращает количество чатов с непустыми пачками.
func (s *BatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}
