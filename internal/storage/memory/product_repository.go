package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepository struct {
	store *Store
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) List(limit int) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		result = append(result, product)
	}
	sortProductsByName(result)
	return capProducts(result, limit), nil
}

func (r *productRepository) ListByCategory(categoryID string, limit int) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, product := range s.products {
		if product.CategoryID == categoryID {
			result = append(result, product)
		}
	}
	sortProductsByName(result)
	return capProducts(result, limit), nil
}

func (r *productRepository) SearchByPrefix(prefix string, limit int) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	result := make([]domain.Product, 0)
	for _, product := range s.products {
		if strings.HasPrefix(strings.ToLower(product.Name), prefix) {
			result = append(result, product)
		}
	}
	sortProductsByName(result)
	return capProducts(result, limit), nil
}

func (r *productRepository) Create(p domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return nil
}

func (r *productRepository) Update(p domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[p.ID] = p
	return nil
}

// Delete отклоняет удаление товара, на который ссылаются позиции заказов.
func (r *productRepository) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	for _, order := range s.orders {
		for _, line := range order.Lines {
			if line.ProductID == id {
				return domain.ErrProductReferenced
			}
		}
	}
	delete(s.products, id)
	return nil
}

// DecrementStock — условное списание: сток не уходит в минус.
func (r *productRepository) DecrementStock(productID string, qty int32) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   qty,
		}
	}
	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	return nil
}

// IncrementStock — безусловный возврат стока при отмене.
func (r *productRepository) IncrementStock(productID string, qty int32) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.Stock += qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	return nil
}

func sortProductsByName(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
}

func capProducts(products []domain.Product, limit int) []domain.Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}

var _ domain.ProductRepository = (*productRepository)(nil)
