// Package cache предоставляет явную абстракцию кеша для листингов каталога
// вместо глобального изменяемого состояния.
package cache

import (
	"context"
	"time"
)

// Clock отделяет кеш от системного времени ради детерминированных тестов.
type Clock interface {
	Now() time.Time
}

// SystemClock — часы по умолчанию.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Cache хранит сериализованные ответы с TTL, ключ — запрос.
// Инвалидация явная: пишущие операции каталога удаляют затронутые ключи.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
