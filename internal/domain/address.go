package domain

import "time"

// AddressType различает адреса доставки и выставления счёта.
type AddressType string

const (
	AddressTypeDelivery AddressType = "delivery"
	AddressTypeBilling  AddressType = "billing"
)

// Valid проверяет тип адреса.
func (t AddressType) Valid() bool {
	return t == AddressTypeDelivery || t == AddressTypeBilling
}

// Address — запись адресной книги пользователя.
// Заказ ссылается на адреса по id; записи не удаляются, пока на них
// ссылается существующий заказ (referential integrity хранилища).
type Address struct {
	ID         string
	UserID     string
	Type       AddressType
	Title      string
	FullName   string
	Phone      string
	City       string
	District   string
	PostalCode string
	Text       string
	CreatedAt  time.Time
}
