package domain

import "time"

// CartLine — позиция корзины пользователя: пара (пользователь, товар) с количеством.
// Количество при мутациях ограничивается текущим стоком товара, но эта
// проверка советующая: авторитетная выполняется в транзакции оформления.
type CartLine struct {
	UserID    string
	ProductID string
	Qty       int32
	UpdatedAt time.Time
}

// ClampQty ограничивает количество доступным стоком.
// Возвращает true, если количество было урезано.
func (l *CartLine) ClampQty(stock int32) bool {
	if l.Qty <= stock {
		return false
	}
	l.Qty = stock
	return true
}
