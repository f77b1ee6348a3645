package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cache"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Dependencies содержит репозитории и инфраструктуру приложения.
type Dependencies struct {
	Orders      domain.OrderRepository
	Products    domain.ProductRepository
	Categories  domain.CategoryRepository
	Carts       domain.CartRepository
	Addresses   domain.AddressRepository
	Users       domain.UserRepository
	Outbox      domain.OutboxRepository
	Idempotency domain.IdempotencyRepository

	Cache       cache.Cache
	RedisClient *redis.Client
	Postgres    *postgres.Store
	Logger      *log.Entry
}

// NewDependencies собирает зависимости по конфигурации: драйвер хранилища
// memory|postgres, кеш redis либо in-memory.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.Storage.Driver {
	case "postgres":
		store, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Storage.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		deps.Postgres = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Products = postgres.NewProductRepository(store)
		deps.Categories = postgres.NewCategoryRepository(store)
		deps.Carts = postgres.NewCartRepository(store)
		deps.Addresses = postgres.NewAddressRepository(store)
		deps.Users = postgres.NewUserRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		logger.Info("postgres storage initialized")
	case "memory":
		store := memory.NewStore()
		deps.Orders = store.Orders()
		deps.Products = store.Products()
		deps.Categories = store.Categories()
		deps.Carts = store.Carts()
		deps.Addresses = store.Addresses()
		deps.Users = store.Users()
		deps.Outbox = store.Outbox()
		deps.Idempotency = memory.NewIdempotencyRepository()
		logger.Info("in-memory storage initialized")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, falling back to in-memory cache")
			_ = client.Close()
		} else {
			deps.RedisClient = client
			deps.Cache = cache.NewRedis(client)
			logger.WithField("addr", cfg.Redis.Addr).Info("redis cache initialized")
		}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory(cache.SystemClock{})
	}

	return deps, nil
}

// RegisterHealthCheckers вешает проверки доступности инфраструктуры.
func (d *Dependencies) RegisterHealthCheckers(h *health.Handler) {
	if d.Postgres != nil {
		h.RegisterChecker("postgres", health.NewStorageChecker("postgres", d.Postgres))
	}
	if d.RedisClient != nil {
		h.RegisterChecker("redis", health.NewRedisChecker(d.RedisClient))
	}
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
