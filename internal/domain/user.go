package domain

import "time"

// Role задаёт уровень привилегий пользователя.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid проверяет роль.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// CompanyProfile — реквизиты дилера. Пустой профиль означает обычного
// покупателя; привилегий профиль не добавляет.
type CompanyProfile struct {
	CompanyName string
	TaxID       string
	TaxOffice   string
}

// User — учётная запись покупателя или администратора.
type User struct {
	ID        string
	Email     string
	Name      string
	Phone     string
	Role      Role
	Company   CompanyProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDealer сообщает, заполнен ли дилерский профиль.
func (u *User) IsDealer() bool {
	return u.Company.CompanyName != "" || u.Company.TaxID != ""
}
