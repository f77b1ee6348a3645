package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа в витрине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, ещё не взят в обработку.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ собирается на складе.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю. Терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён, сток возвращён. Терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus валидирует строковое значение статуса.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, завершён ли жизненный цикл заказа.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// UserCancellable сообщает, может ли владелец отменить заказ из этого статуса.
// После отгрузки пользовательская отмена закрыта, остаётся только админская.
func (s OrderStatus) UserCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// OrderLine фиксирует позицию заказа: товар, количество и цену на момент покупки.
// Цена замораживается при оформлении и не зависит от последующих изменений товара.
type OrderLine struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Qty         int32
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// Order агрегирует состояние заказа и его позиции.
// После создания изменяемы только Status и Notes.
type Order struct {
	ID                string
	Number            string
	UserID            string
	Status            OrderStatus
	ShippingAddressID string
	BillingAddressID  string
	TotalPrice        decimal.Decimal
	Notes             string
	Lines             []OrderLine
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.Number == "" {
		errs = append(errs, ErrOrderNumberRequired)
	}
	if o.ShippingAddressID == "" {
		errs = append(errs, ErrShippingAddressRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.TotalPrice.IsNegative() {
		errs = append(errs, ErrTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	calc := decimal.Zero
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.Price.IsNegative() {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc = calc.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	if !calc.Equal(o.TotalPrice) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// AppendNote дописывает тег и причину в конец журнала заметок заказа.
// Журнал append-only: существующие записи не переписываются.
func (o *Order) AppendNote(tag, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	entry := fmt.Sprintf("[%s] %s", tag, reason)
	if o.Notes == "" {
		o.Notes = entry
		return
	}
	o.Notes = o.Notes + "\n" + entry
}

// NewOrderNumber генерирует человекочитаемый номер заказа вида ORD-<ms>-<suffix>.
// Уникальность обеспечивает constraint в хранилище; вызывающая сторона
// повторяет генерацию при конфликте.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
