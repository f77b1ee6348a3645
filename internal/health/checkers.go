package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Pinger — минимальный контракт хранилища для проверки доступности.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewStorageChecker создаёт проверку доступности хранилища заказов.
func NewStorageChecker(name string, store Pinger) *SimpleChecker {
	return NewSimpleChecker(name, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return store.Ping(ctx)
	})
}

// NewRedisChecker создаёт проверку доступности redis-кеша каталога.
func NewRedisChecker(client *redis.Client) *SimpleChecker {
	return NewSimpleChecker("redis", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	})
}
