// Package cache хранит результаты разбора файлов по хешу их содержимого,
// чтобы повторная загрузка того же экспорта не разбиралась заново.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"chat-export-bot/internal/domain"
)

// CacheItem представляет кэшированный результат разбора.
type CacheItem struct {
	Result    *domain.ExtractionResult
	ExpiresAt time.Time
}

// CacheStore: потокобезопасный in-memory кэш результатов разбора с TTL.
type CacheStore struct {
	cache map[string]*CacheItem
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewCacheStore создает кэш, в котором элементы живут ttl.
func NewCacheStore(ttl time.Duration) *CacheStore {
	return &CacheStore{
		cache: make(map[string]*CacheItem),
		ttl:   ttl,
	}
}

// Get извлекает результат по хешу содержимого.
func (cs *CacheStore) Get(key string) (*domain.ExtractionResult, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	item, exists := cs.cache[key]
	if !exists || time.Now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Result, true
}

// Put сохраняет результат с TTL, заданным при создании кэша.
func (cs *CacheStore) Put(key string, result *domain.ExtractionResult) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[key] = &CacheItem{
		Result:    result,
		ExpiresAt: time.Now().Add(cs.ttl),
	}
}

// Len возвращает количество элементов, включая еще не вычищенные просроченные.
func (cs *CacheStore) Len() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()
	return len(cs.cache)
}

// CleanupExpired удаляет просроченные элементы из кэша.
func (cs *CacheStore) CleanupExpired() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := time.Now()
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
		}
	}
}

// StartCleanupTicker запускает периодическую очистку до отмены ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

// ContentHash вычисляет SHA256 содержимого файла в hex.
func ContentHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
