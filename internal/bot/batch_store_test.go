package bot

import (
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchStore(t *testing.T) {
	t.Run("Новый документ переносит уведомление", func(t *testing.T) {
		store := NewBatchStore()
		var calls, lastCount atomic.Int32
		notify := func(count, replyTo int) {
			calls.Add(1)
			lastCount.Store(int32(count))
		}

		store.Add(1, tgbotapi.Document{FileID: "a"}, 100, 40*time.Millisecond, notify)
		time.Sleep(20 * time.Millisecond)
		store.Add(1, tgbotapi.Document{FileID: "b"}, 101, 40*time.Millisecond, notify)
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, calls.Load())

		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.EqualValues(t, 2, lastCount.Load())

		docs, ok := store.Documents(1)
		require.True(t, ok)
		assert.Len(t, docs, 2)
	})

	t.Run("Clear удаляет пачку и отменяет уведомление", func(t *testing.T) {
		store := NewBatchStore()
		var calls atomic.Int32

		store.Add(7, tgbotapi.Document{FileID: "a"}, 1, 20*time.Millisecond, func(int, int) { calls.Add(1) })
		store.Clear(7)
		store.Clear(7)
		time.Sleep(60 * time.Millisecond)

		assert.Zero(t, calls.Load())
		_, ok := store.Documents(7)
		assert.False(t, ok)
	})

	t.Run("Устаревший таймер не уведомляет", func(t *testing.T) {
		store := NewBatchStore()
		store.Add(3, tgbotapi.Document{FileID: "a"}, 1, time.Hour, func(int, int) {})

		count, _, current := store.snapshot(3, 0)
		assert.False(t, current)
		assert.Zero(t, count)

		count, replyTo, current := store.snapshot(3, 1)
		assert.True(t, current)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, replyTo)
		store.Clear(3)
	})
}

func TestFileManager(t *testing.T) {
	fm := NewFileManager(100)

	assert.True(t, fm.IsSupported(&tgbotapi.Document{FileName: "result.json"}))
	assert.True(t, fm.IsSupported(&tgbotapi.Document{FileName: "RESULT.JSON"}))
	assert.False(t, fm.IsSupported(&tgbotapi.Document{FileName: "result.html"}))
	assert.False(t, fm.IsSupported(&tgbotapi.Document{}))
	assert.False(t, fm.IsSupported(nil))

	assert.True(t, fm.SizeAllowed(&tgbotapi.Document{FileSize: 100}))
	assert.False(t, fm.SizeAllowed(&tgbotapi.Document{FileSize: 101}))
}
