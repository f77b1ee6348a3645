// Package orders управляет жизненным циклом оформленных заказов: отмена с
// возвратом стока, админская смена статуса и запросы чтения. Права доступа
// проверяются через internal/policy до любых изменений.
package orders

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/notification"
	"github.com/vladislavdragonenkov/storefront/internal/policy"
)

// versionRetryAttempts ограничивает перечитывание при конфликте версий.
const versionRetryAttempts = 3

// Service выполняет операции над заказами.
type Service struct {
	orders  domain.OrderRepository
	logger  *log.Entry
	metrics *metrics.OrderMetrics
}

// New создаёт сервис заказов.
func New(orders domain.OrderRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Service{
		orders:  orders,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
	}
}

// NewWithoutMetrics создаёт сервис без метрик (для тестов).
func NewWithoutMetrics(orders domain.OrderRepository, logger *log.Entry) *Service {
	svc := New(orders, logger)
	svc.metrics = nil
	return svc
}

// Cancel отменяет заказ с возвратом стока по каждой позиции.
//
// Владелец может отменять только из pending/processing, администратор —
// любой ещё не отменённый заказ. Повторная отмена — no-op для вызывающей
// стороны: возвращается текущее состояние без второго возврата стока.
func (s *Service) Cancel(actor policy.Actor, orderID, reason string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := policy.CheckOrder(actor, policy.ActionCancelOrder, order); err != nil {
		return domain.Order{}, err
	}

	cancelled := order
	cancelled.Status = domain.OrderStatusCancelled
	updated, err := s.orders.Cancel(orderID, reason, notification.OrderCancelled(cancelled, reason))
	if err != nil {
		if errors.Is(err, domain.ErrOrderAlreadyCancelled) {
			s.logger.WithField("order_id", orderID).Debug("cancel of already cancelled order ignored")
			return s.orders.Get(orderID)
		}
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"order_number": updated.Number,
		"reason":       reason,
	}).Info("order cancelled")

	return updated, nil
}

// UpdateStatus переводит заказ в запрошенный статус (только администратор).
// Запрос статуса cancelled делегируется Cancel, чтобы возврат стока прошёл
// по единственному защищённому пути. Конфликт версий разрешается
// перечитыванием и повтором: выигрывает первый зафиксированный писатель.
func (s *Service) UpdateStatus(actor policy.Actor, orderID string, status domain.OrderStatus, reason string) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	if err := policy.Check(actor, policy.ActionUpdateOrderStatus); err != nil {
		return domain.Order{}, err
	}
	if status == domain.OrderStatusCancelled {
		return s.Cancel(actor, orderID, reason)
	}

	for attempt := 1; ; attempt++ {
		order, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if order.Status == domain.OrderStatusCancelled {
			// Отменённый заказ обратно в работу не возвращается: сток уже
			// восстановлен и повторное списание здесь не происходит.
			return domain.Order{}, domain.ErrOrderAlreadyCancelled
		}

		next := order
		next.Status = status
		updated, err := s.orders.UpdateStatus(orderID, status, reason, order.Version, notification.OrderStatusChanged(next))
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordStatusChange(string(status))
			}
			s.logger.WithFields(log.Fields{
				"order_id": updated.ID,
				"status":   string(status),
			}).Info("order status updated")
			return updated, nil
		}
		if !domain.IsVersionConflict(err) || attempt >= versionRetryAttempts {
			return domain.Order{}, err
		}
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"attempt":  attempt,
		}).Warn("order version conflict, re-reading")
	}
}

// Get возвращает заказ владельцу или администратору.
func (s *Service) Get(actor policy.Actor, orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := policy.CheckOrder(actor, policy.ActionViewOrder, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// TrackByNumber возвращает заказ по номеру без авторизации: номер заказа
// служит capability-токеном для страницы отслеживания.
func (s *Service) TrackByNumber(number string) (domain.Order, error) {
	return s.orders.GetByNumber(number)
}

// ListOwn возвращает заказы пользователя, новые первыми.
func (s *Service) ListOwn(actor policy.Actor, limit int) ([]domain.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByUser(actor.UserID, limit)
}

// ListAll возвращает заказы всех пользователей (только администратор).
func (s *Service) ListAll(actor policy.Actor, limit int) ([]domain.Order, error) {
	if err := policy.Check(actor, policy.ActionListAllOrders); err != nil {
		return nil, err
	}
	return s.orders.List(limit)
}
