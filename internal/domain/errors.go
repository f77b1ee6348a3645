package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего владельца заказа.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего номера заказа.
	ErrOrderNumberRequired = errors.New("order number is required")
	// Ошибка отсутствующего адреса доставки.
	ErrShippingAddressRequired = errors.New("shipping address is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("total price must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match lines sum")
	// Ошибка пустого имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отсутствующей категории товара.
	ErrCategoryRequired = errors.New("category_id is required")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("product price must be non-negative")
	// Ошибка отрицательного стока.
	ErrStockNegative = errors.New("product stock must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrAddressNotFound возвращается, если адрес отсутствует или принадлежит
	// другому пользователю — различие наружу не раскрывается.
	ErrAddressNotFound = errors.New("address not found")
	// ErrUserNotFound возвращается, если учётная запись не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrCartLineNotFound возвращается при удалении отсутствующей позиции корзины.
	ErrCartLineNotFound = errors.New("cart line not found")

	// ErrCartEmpty — оформление невозможно без позиций в корзине.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrInvalidStatus — неизвестное значение статуса заказа.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrQtyInvalid — количество в корзине должно быть положительным.
	ErrQtyInvalid = errors.New("qty must be greater than zero")
	// ErrForbidden — актор не имеет права на операцию.
	ErrForbidden = errors.New("forbidden")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrOrderNumberConflict — сгенерированный номер заказа уже занят.
	ErrOrderNumberConflict = errors.New("order number already taken")
	// ErrOrderAlreadyCancelled — повторная отмена: сток не возвращается второй раз.
	ErrOrderAlreadyCancelled = errors.New("order is already cancelled")
	// ErrProductReferenced — товар нельзя удалить, пока на него ссылаются заказы.
	ErrProductReferenced = errors.New("product is referenced by existing orders")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError возвращается, когда запрошенное количество превышает
// доступный сток. Текст называет товар, остаток и запрошенное количество.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int32
	Requested   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой стока.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
