// Package checkout оформляет заказ из корзины пользователя.
//
// Сервис собирает заказ (замороженные цены, снимок имён товаров, сумма),
// а атомарность — списание стока, очистка корзины, запись уведомлений —
// обеспечивает OrderRepository одной транзакцией.
package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/notification"
)

// maxNumberAttempts ограничивает перегенерацию номера заказа при коллизии.
const maxNumberAttempts = 5

// Request описывает входные данные оформления.
type Request struct {
	UserID            string
	ShippingAddressID string
	// BillingAddressID пустой — использовать адрес доставки.
	BillingAddressID string
	Note             string
}

// Service оформляет заказы.
type Service struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	carts     domain.CartRepository
	addresses domain.AddressRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// New создаёт сервис оформления.
func New(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	carts domain.CartRepository,
	addresses domain.AddressRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		orders:    orders,
		products:  products,
		carts:     carts,
		addresses: addresses,
		logger:    logger,
		metrics:   metrics.NewOrderMetrics(),
	}
}

// NewWithoutMetrics создаёт сервис без метрик (для тестов).
func NewWithoutMetrics(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	carts domain.CartRepository,
	addresses domain.AddressRepository,
	logger *log.Entry,
) *Service {
	svc := New(orders, products, carts, addresses, logger)
	svc.metrics = nil
	return svc
}

// PlaceOrder оформляет заказ из текущей корзины пользователя.
//
// Цены и имена товаров замораживаются на момент оформления: последующие
// изменения каталога заказ не трогают. При коллизии номера заказа генерация
// повторяется; при нехватке стока возвращается *domain.InsufficientStockError
// без каких-либо изменений.
func (s *Service) PlaceOrder(req Request) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordCheckoutStarted()
		defer func() {
			s.metrics.RecordCheckoutFinished()
			s.metrics.RecordCheckoutDuration(time.Since(start))
		}()
	}

	order, err := s.placeOrder(req)
	if err != nil {
		s.recordFailure(err)
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
	}
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.Number,
		"user_id":      order.UserID,
		"lines":        len(order.Lines),
		"total":        order.TotalPrice.String(),
	}).Info("order placed")

	return order, nil
}

func (s *Service) placeOrder(req Request) (domain.Order, error) {
	if req.UserID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}

	shippingID, billingID, err := s.resolveAddresses(req)
	if err != nil {
		return domain.Order{}, err
	}

	cartLines, err := s.carts.ListByUser(req.UserID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(cartLines) == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}

	now := time.Now().UTC()
	orderID := uuid.NewString()

	lines := make([]domain.OrderLine, 0, len(cartLines))
	total := decimal.Zero
	for _, cl := range cartLines {
		if cl.Qty <= 0 {
			return domain.Order{}, domain.ErrQtyInvalid
		}
		product, err := s.products.Get(cl.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		// Советующая проверка стока до транзакции: даёт быстрый отказ с
		// актуальным остатком. Авторитетная проверка — в PlaceOrder репозитория.
		if product.Stock < cl.Qty {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   cl.Qty,
			}
		}
		lines = append(lines, domain.OrderLine{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         cl.Qty,
			Price:       product.Price,
			CreatedAt:   now,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(cl.Qty))))
	}

	order := domain.Order{
		ID:                orderID,
		UserID:            req.UserID,
		Status:            domain.OrderStatusPending,
		ShippingAddressID: shippingID,
		BillingAddressID:  billingID,
		TotalPrice:        total,
		Lines:             lines,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	order.AppendNote("checkout", req.Note)

	for attempt := 1; ; attempt++ {
		order.Number = domain.NewOrderNumber(time.Now())
		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return domain.Order{}, errs[0]
		}

		err := s.orders.PlaceOrder(order, notification.OrderPlaced(order))
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNumberConflict) || attempt >= maxNumberAttempts {
			return domain.Order{}, err
		}
		if s.metrics != nil {
			s.metrics.RecordNumberRetry()
		}
		s.logger.WithFields(log.Fields{
			"order_number": order.Number,
			"attempt":      attempt,
		}).Warn("order number collision, regenerating")
	}
}

// resolveAddresses проверяет адрес доставки (существует, принадлежит
// пользователю, тип delivery) и подставляет его вместо пустого платёжного.
func (s *Service) resolveAddresses(req Request) (shippingID, billingID string, err error) {
	if req.ShippingAddressID == "" {
		return "", "", domain.ErrShippingAddressRequired
	}

	shipping, err := s.addresses.Get(req.ShippingAddressID)
	if err != nil {
		return "", "", err
	}
	if shipping.UserID != req.UserID {
		return "", "", domain.ErrAddressNotFound
	}
	if shipping.Type != domain.AddressTypeDelivery {
		return "", "", domain.ErrAddressNotFound
	}

	billingID = req.BillingAddressID
	if billingID == "" {
		return shipping.ID, shipping.ID, nil
	}

	billing, err := s.addresses.Get(billingID)
	if err != nil {
		return "", "", err
	}
	if billing.UserID != req.UserID {
		return "", "", domain.ErrAddressNotFound
	}
	return shipping.ID, billing.ID, nil
}

func (s *Service) recordFailure(err error) {
	switch {
	case domain.IsInsufficientStock(err):
		if s.metrics != nil {
			s.metrics.RecordInsufficientStock()
		}
		s.logger.WithError(err).Info("checkout rejected: insufficient stock")
	case errors.Is(err, domain.ErrCartEmpty):
		s.logger.Debug("checkout rejected: empty cart")
	default:
		if s.metrics != nil {
			s.metrics.RecordCheckoutFailed()
		}
		s.logger.WithError(err).Warn("checkout failed")
	}
}
