// Package policy собирает все правила авторизации витрины в одном месте,
// чтобы admin/owner/anonymous-логика не дублировалась по обработчикам.
package policy

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// Actor — установленная личность вызывающего.
type Actor struct {
	UserID string
	Role   domain.Role
}

// Anonymous сообщает, аутентифицирован ли актор.
func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

// Admin сообщает, имеет ли актор административную роль.
func (a Actor) Admin() bool {
	return a.Role == domain.RoleAdmin
}

// Action перечисляет охраняемые операции.
type Action string

const (
	ActionViewOrder         Action = "order.view"
	ActionCancelOrder       Action = "order.cancel"
	ActionUpdateOrderStatus Action = "order.update_status"
	ActionManageCatalog     Action = "catalog.manage"
	ActionListAllOrders     Action = "order.list_all"
	ActionManageUsers       Action = "user.manage"
)

// CheckOrder проверяет право актора на действие с конкретным заказом.
// Возвращает nil либо domain.ErrForbidden.
func CheckOrder(actor Actor, action Action, order domain.Order) error {
	if actor.Anonymous() {
		return domain.ErrForbidden
	}
	if actor.Admin() {
		// Админ не может отменить уже отменённый заказ — это не вопрос
		// прав, а идемпотентность, и ловится на уровне хранилища.
		return nil
	}

	switch action {
	case ActionViewOrder:
		if order.UserID == actor.UserID {
			return nil
		}
	case ActionCancelOrder:
		// Владелец отменяет только до отгрузки.
		if order.UserID == actor.UserID && order.Status.UserCancellable() {
			return nil
		}
	}
	return domain.ErrForbidden
}

// Check проверяет право актора на действие без привязки к ресурсу.
func Check(actor Actor, action Action) error {
	if actor.Anonymous() {
		return domain.ErrForbidden
	}
	switch action {
	case ActionUpdateOrderStatus, ActionManageCatalog, ActionListAllOrders, ActionManageUsers:
		if actor.Admin() {
			return nil
		}
		return domain.ErrForbidden
	default:
		return nil
	}
}
