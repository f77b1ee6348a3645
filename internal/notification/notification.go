// Package notification собирает уведомления о событиях заказа в виде
// outbox-сообщений. Сообщения кладутся в outbox той же транзакцией, что и
// заказ, а публикуются асинхронно воркером.
package notification

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Типы событий в outbox. Воркер публикует их как есть, потребители
// маршрутизируют по event_type.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
	EventNotifyBuyer        = "notify.buyer"
	EventNotifyAdmin        = "notify.admin"
)

const aggregateOrder = "order"

type orderLinePayload struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int32           `json:"qty"`
	Price       decimal.Decimal `json:"price"`
}

type orderPayload struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	Status      string             `json:"status"`
	TotalPrice  decimal.Decimal    `json:"total_price"`
	Lines       []orderLinePayload `json:"lines,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func payloadFor(order domain.Order, reason string, withLines bool) []byte {
	p := orderPayload{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalPrice:  order.TotalPrice,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
	if withLines {
		p.Lines = make([]orderLinePayload, 0, len(order.Lines))
		for _, line := range order.Lines {
			p.Lines = append(p.Lines, orderLinePayload{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Qty:         line.Qty,
				Price:       line.Price,
			})
		}
	}
	// Marshal структуры с известными полями не может вернуть ошибку.
	data, _ := json.Marshal(p)
	return data
}

func message(eventType string, order domain.Order, payload []byte) domain.OutboxMessage {
	return domain.OutboxMessage{
		AggregateType: aggregateOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}
}

// OrderPlaced возвращает уведомления при успешном оформлении: событие заказа,
// подтверждение покупателю и сигнал администратору о новом заказе.
func OrderPlaced(order domain.Order) []domain.OutboxMessage {
	full := payloadFor(order, "", true)
	short := payloadFor(order, "", false)
	return []domain.OutboxMessage{
		message(EventOrderPlaced, order, full),
		message(EventNotifyBuyer, order, full),
		message(EventNotifyAdmin, order, short),
	}
}

// OrderCancelled возвращает уведомления об отмене заказа.
func OrderCancelled(order domain.Order, reason string) []domain.OutboxMessage {
	payload := payloadFor(order, reason, false)
	return []domain.OutboxMessage{
		message(EventOrderCancelled, order, payload),
		message(EventNotifyBuyer, order, payload),
	}
}

// OrderStatusChanged возвращает уведомления о смене статуса заказа админом.
func OrderStatusChanged(order domain.Order) []domain.OutboxMessage {
	payload := payloadFor(order, "", false)
	return []domain.OutboxMessage{
		message(EventOrderStatusChanged, order, payload),
		message(EventNotifyBuyer, order, payload),
	}
}
