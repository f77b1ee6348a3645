package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	store *Store
}

func (r *cartRepository) ListByUser(userID string) ([]domain.CartLine, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[userID]
	result := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		result = append(result, line)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

// Upsert создаёт либо заменяет позицию корзины по паре (user, product).
func (r *cartRepository) Upsert(line domain.CartLine) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if line.Qty <= 0 {
		return domain.ErrQtyInvalid
	}
	cart := s.carts[line.UserID]
	if cart == nil {
		cart = make(map[string]domain.CartLine)
		s.carts[line.UserID] = cart
	}
	cart[line.ProductID] = line
	return nil
}

func (r *cartRepository) Remove(userID, productID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[userID]
	if _, ok := cart[productID]; !ok {
		return domain.ErrCartLineNotFound
	}
	delete(cart, productID)
	return nil
}

func (r *cartRepository) Clear(userID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
