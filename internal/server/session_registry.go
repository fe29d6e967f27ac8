package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/metrics"
)

// SessionRegistry хранит сессии HTTP API по UUID и удаляет простаивающие.
type SessionRegistry struct {
	store *session.Store[string]
	ttl   time.Duration
}

// NewSessionRegistry создает реестр; ttl: время простоя, после которого сессия удаляется.
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		store: session.NewStore[string](),
		ttl:   ttl,
	}
}

// Create заводит новую пустую сессию и возвращает ее идентификатор.
func (r *SessionRegistry) Create() string {
	id := uuid.NewString()
	r.store.GetOrCreate(id)
	metrics.ActiveSessions.Set(float64(r.store.Len()))
	return id
}

// Get возвращает сессию по идентификатору.
func (r *SessionRegistry) Get(id string) (*session.Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return r.store.Get(id)
}

// Delete удаляет сессию.
func (r *SessionRegistry) Delete(id string) {
	r.store.Delete(id)
	metrics.ActiveSessions.Set(float64(r.store.Len()))
}

// Len возвращает количество сессий.
func (r *SessionRegistry) Len() int {
	return r.store.Len()
}

// Sweep удаляет сессии, простаивающие дольше ttl.
func (r *SessionRegistry) Sweep() int {
	evicted := r.store.EvictIdle(r.ttl)
	metrics.ActiveSessions.Set(float64(r.store.Len()))
	return evicted
}

// StartJanitor запускает периодическую очистку до отмены контекста.
func (r *SessionRegistry) StartJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					logger.Info("idle sessions evicted", slog.Int("count", n), slog.Int("active", r.Len()))
				}
			}
		}
	}()
}
