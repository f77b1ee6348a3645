package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	store *Store
}

// PlaceOrder выполняет оформление заказа как один критический участок:
// проверка стока, запись заказа, списание, очистка корзины и постановка
// уведомлений в outbox происходят под одной блокировкой.
func (r *orderRepository) PlaceOrder(order domain.Order, notifications []domain.OutboxMessage) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	if _, taken := s.orderNumbers[order.Number]; taken {
		return domain.ErrOrderNumberConflict
	}

	// Сначала валидация всех позиций, потом мутации: частичных списаний нет.
	for _, line := range order.Lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if product.Stock < line.Qty {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   line.Qty,
			}
		}
	}

	for _, line := range order.Lines {
		product := s.products[line.ProductID]
		product.Stock -= line.Qty
		product.UpdatedAt = order.CreatedAt
		s.products[line.ProductID] = product
	}

	s.orders[order.ID] = cloneOrder(order)
	s.orderNumbers[order.Number] = order.ID
	delete(s.carts, order.UserID)
	s.enqueueLocked(notifications)

	return nil
}

// Cancel возвращает сток и помечает заказ отменённым. Защита от повторного
// начисления стока — проверка статуса до каких-либо мутаций.
func (r *orderRepository) Cancel(id, note string, notifications []domain.OutboxMessage) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Status == domain.OrderStatusCancelled {
		return domain.Order{}, domain.ErrOrderAlreadyCancelled
	}

	now := time.Now().UTC()
	for _, line := range order.Lines {
		if product, exists := s.products[line.ProductID]; exists {
			product.Stock += line.Qty
			product.UpdatedAt = now
			s.products[line.ProductID] = product
		}
	}

	order.Status = domain.OrderStatusCancelled
	order.AppendNote("cancel", note)
	order.Version++
	order.UpdatedAt = now
	s.orders[id] = cloneOrder(order)
	s.enqueueLocked(notifications)

	return cloneOrder(order), nil
}

// UpdateStatus переводит заказ в новый статус с проверкой версии.
func (r *orderRepository) UpdateStatus(id string, status domain.OrderStatus, note string, version int64, notifications []domain.OutboxMessage) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Version != version {
		return domain.Order{}, domain.ErrOrderVersionConflict
	}

	order.Status = status
	order.AppendNote("status", note)
	order.Version++
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = cloneOrder(order)
	s.enqueueLocked(notifications)

	return cloneOrder(order), nil
}

// Get возвращает заказ или ErrOrderNotFound.
func (r *orderRepository) Get(id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByNumber ищет заказ по номеру.
func (r *orderRepository) GetByNumber(number string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orderNumbers[number]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(s.orders[id]), nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *orderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	sortOrdersNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// List возвращает все заказы (админский обзор), новые первыми.
func (r *orderRepository) List(limit int) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, cloneOrder(order))
	}
	sortOrdersNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

var _ domain.OrderRepository = (*orderRepository)(nil)
