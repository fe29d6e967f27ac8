package session

import (
	"sync"
	"time"
)

// Store: потокобезопасное in-memory хранилище сессий по ключу
// (идентификатор пользователя Telegram, идентификатор сессии HTTP API).
type Store[K comparable] struct {
	mu       sync.RWMutex
	sessions map[K]*Session
}

// NewStore создает пустое хранилище.
func NewStore[K comparable]() *Store[K] {
	return &Store[K]{
		sessions: make(map[K]*Session),
	}
}

// GetOrCreate возвращает сессию для ключа, создавая ее при первом обращении.
func (s *Store[K]) GetOrCreate(key K) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	sess = New()
	s.sessions[key] = sess
	return sess
}

// Get возвращает сессию, если она уже существует.
func (s *Store[K]) Get(key K) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	return sess, ok
}

// Reset очищает сессию для ключа, если она существует.
func (s *Store[K]) Reset(key K) {
	if sess, ok := s.Get(key); ok {
		sess.Reset()
	}
}

// Delete удаляет сессию из хранилища.
func (s *Store[K]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Len возвращает количество сессий.
func (s *Store[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle удаляет сессии, не менявшиеся дольше idle, и возвращает их количество.
func (s *Store[K]) EvictIdle(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().Add(-idle)
	evicted := 0
	for key, sess := range s.sessions {
		if sess.LastActivity().Before(threshold) {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}
