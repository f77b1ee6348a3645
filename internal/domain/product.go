package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
// Stock — единственный конкурентно изменяемый ресурс: его атомарно
// уменьшает оформление заказа и возвращает отмена.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Stock       int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate проверяет поля товара перед записью в каталог.
func (p *Product) Validate() []error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.CategoryID == "" {
		errs = append(errs, ErrCategoryRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}
	return errs
}

// Category описывает раздел каталога.
type Category struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
