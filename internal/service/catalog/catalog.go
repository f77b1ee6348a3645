// Package catalog обслуживает витрину товаров и разделов.
//
// Листинг категорий ходит через явный TTL-кеш с ключом по запросу;
// пишущие операции каталога инвалидируют затронутые ключи. Никакого
// глобального изменяемого состояния кеш не держит.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cache"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/policy"
)

// Ключи кеша. Per-category списки получают суффикс id категории.
const (
	cacheKeyCategories     = "catalog:categories"
	cacheKeyCategoryPrefix = "catalog:category:"
)

// DefaultCacheTTL применяется, если TTL в конфигурации не задан.
const DefaultCacheTTL = 5 * time.Minute

// Service обслуживает чтение витрины и админские правки каталога.
type Service struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *log.Entry
}

// New создаёт сервис каталога. Кеш опционален: nil отключает кеширование.
func New(
	products domain.ProductRepository,
	categories domain.CategoryRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		products:   products,
		categories: categories,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// GetProduct возвращает товар по id.
func (s *Service) GetProduct(id string) (domain.Product, error) {
	return s.products.Get(id)
}

// ListProducts возвращает товары витрины.
func (s *Service) ListProducts(limit int) ([]domain.Product, error) {
	return s.products.List(limit)
}

// ListProductsByCategory возвращает товары раздела через кеш.
func (s *Service) ListProductsByCategory(ctx context.Context, categoryID string, limit int) ([]domain.Product, error) {
	key := cacheKeyCategoryPrefix + categoryID
	var cached []domain.Product
	if s.cacheGet(ctx, key, &cached) {
		return capLimit(cached, limit), nil
	}

	products, err := s.products.ListByCategory(categoryID, 0)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, products)
	return capLimit(products, limit), nil
}

// SearchProducts ищет товары по префиксу имени, регистронезависимо.
func (s *Service) SearchProducts(prefix string, limit int) ([]domain.Product, error) {
	return s.products.SearchByPrefix(prefix, limit)
}

// ListCategories возвращает разделы каталога через кеш.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cached []domain.Category
	if s.cacheGet(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	categories, err := s.categories.List()
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyCategories, categories)
	return categories, nil
}

// GetCategory возвращает раздел по id.
func (s *Service) GetCategory(id string) (domain.Category, error) {
	return s.categories.Get(id)
}

// CreateProduct добавляет товар (только администратор).
func (s *Service) CreateProduct(ctx context.Context, actor policy.Actor, p domain.Product) (domain.Product, error) {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return domain.Product{}, err
	}
	if errs := p.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}
	if _, err := s.categories.Get(p.CategoryID); err != nil {
		return domain.Product{}, err
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.products.Create(p); err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, cacheKeyCategoryPrefix+p.CategoryID)
	return p, nil
}

// UpdateProduct правит товар, включая прямую правку стока как CRUD-поле.
// Складские движения оформления/отмены идут отдельными ledger-операциями.
func (s *Service) UpdateProduct(ctx context.Context, actor policy.Actor, p domain.Product) (domain.Product, error) {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return domain.Product{}, err
	}
	if errs := p.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	previous, err := s.products.Get(p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = previous.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(p); err != nil {
		return domain.Product{}, err
	}
	keys := []string{cacheKeyCategoryPrefix + p.CategoryID}
	if previous.CategoryID != p.CategoryID {
		keys = append(keys, cacheKeyCategoryPrefix+previous.CategoryID)
	}
	s.invalidate(ctx, keys...)
	return p, nil
}

// DeleteProduct удаляет товар; отказ ErrProductReferenced, если на товар
// ссылаются заказы — исторические позиции хранят его снимок.
func (s *Service) DeleteProduct(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return err
	}
	product, err := s.products.Get(id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyCategoryPrefix+product.CategoryID)
	return nil
}

// CreateCategory добавляет раздел (только администратор).
func (s *Service) CreateCategory(ctx context.Context, actor policy.Actor, c domain.Category) (domain.Category, error) {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return domain.Category{}, err
	}
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.categories.Create(c); err != nil {
		return domain.Category{}, err
	}
	s.invalidate(ctx, cacheKeyCategories)
	return c, nil
}

// UpdateCategory правит раздел.
func (s *Service) UpdateCategory(ctx context.Context, actor policy.Actor, c domain.Category) (domain.Category, error) {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return domain.Category{}, err
	}
	previous, err := s.categories.Get(c.ID)
	if err != nil {
		return domain.Category{}, err
	}
	c.CreatedAt = previous.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(c); err != nil {
		return domain.Category{}, err
	}
	s.invalidate(ctx, cacheKeyCategories, cacheKeyCategoryPrefix+c.ID)
	return c, nil
}

// DeleteCategory удаляет раздел.
func (s *Service) DeleteCategory(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Check(actor, policy.ActionManageCatalog); err != nil {
		return err
	}
	if err := s.categories.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyCategories, cacheKeyCategoryPrefix+id)
	return nil
}

// cacheGet читает и декодирует значение; ошибки кеша деградируют до промаха.
func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache entry corrupted, dropping")
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("cache invalidation failed")
	}
}

func capLimit(products []domain.Product, limit int) []domain.Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}
