package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryCache — потокобезопасный in-process кеш с ленивой очисткой:
// просроченная запись удаляется при чтении.
type memoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	clock Clock
}

// NewMemory создаёт in-memory кеш. При nil clock используются системные часы.
func NewMemory(clock Clock) Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &memoryCache{
		items: make(map[string]memoryEntry),
		clock: clock,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && !c.clock.Now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Перепроверяем под write-блокировкой: запись могли успеть обновить.
		if current, still := c.items[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = c.clock.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return nil
}

var _ Cache = (*memoryCache)(nil)
