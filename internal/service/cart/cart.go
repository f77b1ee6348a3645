// Package cart реализует корзину пользователя с советующим ограничением
// количества по текущему стоку. Авторитетная проверка стока выполняется
// транзакцией оформления, не здесь.
package cart

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Line — позиция корзины, обогащённая данными товара для выдачи наружу.
type Line struct {
	Product domain.Product
	Qty     int32
	// Clamped выставляется, если запрошенное количество было урезано до стока.
	Clamped bool
}

// Service выполняет операции над корзиной.
type Service struct {
	carts    domain.CartRepository
	products domain.ProductRepository
	logger   *log.Entry
}

// New создаёт сервис корзины.
func New(carts domain.CartRepository, products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Service{carts: carts, products: products, logger: logger}
}

// Get возвращает корзину пользователя с актуальными данными товаров.
// Позиции по удалённым товарам пропускаются.
func (s *Service) Get(userID string) ([]Line, error) {
	if userID == "" {
		return nil, domain.ErrForbidden
	}
	cartLines, err := s.carts.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(cartLines))
	for _, cl := range cartLines {
		product, err := s.products.Get(cl.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, Line{Product: product, Qty: cl.Qty})
	}
	return lines, nil
}

// Upsert добавляет товар в корзину или меняет количество существующей позиции.
// Количество урезается до текущего стока; нулевой сток означает удаление.
func (s *Service) Upsert(userID, productID string, qty int32) (Line, error) {
	if userID == "" {
		return Line{}, domain.ErrForbidden
	}
	if qty <= 0 {
		return Line{}, domain.ErrQtyInvalid
	}

	product, err := s.products.Get(productID)
	if err != nil {
		return Line{}, err
	}

	line := domain.CartLine{
		UserID:    userID,
		ProductID: productID,
		Qty:       qty,
		UpdatedAt: time.Now().UTC(),
	}
	clamped := line.ClampQty(product.Stock)
	if line.Qty == 0 {
		// Сток иссяк: позиция в корзине не держится.
		if err := s.carts.Remove(userID, productID); err != nil && !errors.Is(err, domain.ErrCartLineNotFound) {
			return Line{}, err
		}
		return Line{Product: product, Qty: 0, Clamped: true}, nil
	}

	if err := s.carts.Upsert(line); err != nil {
		return Line{}, err
	}
	if clamped {
		s.logger.WithFields(log.Fields{
			"user_id":    userID,
			"product_id": productID,
			"requested":  qty,
			"stock":      product.Stock,
		}).Debug("cart qty clamped to stock")
	}
	return Line{Product: product, Qty: line.Qty, Clamped: clamped}, nil
}

// Remove удаляет позицию корзины.
func (s *Service) Remove(userID, productID string) error {
	if userID == "" {
		return domain.ErrForbidden
	}
	return s.carts.Remove(userID, productID)
}

// Clear очищает корзину целиком.
func (s *Service) Clear(userID string) error {
	if userID == "" {
		return domain.ErrForbidden
	}
	return s.carts.Clear(userID)
}
