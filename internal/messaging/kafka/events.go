package kafka

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderPlaced        EventType = "order.placed"
	EventTypeOrderCancelled     EventType = "order.cancelled"
	EventTypeOrderStatusChanged EventType = "order.status_changed"

	// Notification события
	EventTypeNotifyBuyer EventType = "notify.buyer"
	EventTypeNotifyAdmin EventType = "notify.admin"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicDeadLetterQueue = "storefront.dlq" // Dead Letter Queue для failed messages
)

// HeaderRetryCount хранит число повторных обработок сообщения.
const HeaderRetryCount = "x-retry-count"

// Envelope — обёртка события на wire: outbox-воркер публикует события в этом
// виде, потребители маршрутизируют по event_type.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// OrderEvent представляет полезную нагрузку события жизненного цикла заказа.
// Строки заказа потребителю уведомлений не нужны и здесь опускаются.
type OrderEvent struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Reason      string          `json:"reason,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// OrderEvent декодирует полезную нагрузку обёртки.
func (e *Envelope) OrderEvent() (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(e.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
