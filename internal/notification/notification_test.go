package notification

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func testOrder() domain.Order {
	return domain.Order{
		ID:         "order-1",
		Number:     "ORD-1",
		UserID:     "user-1",
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.NewFromInt(200),
		Lines: []domain.OrderLine{
			{ProductID: "product-1", ProductName: "Widget", Qty: 2, Price: decimal.NewFromInt(100)},
		},
	}
}

func decodePayload(t *testing.T, msg domain.OutboxMessage) orderPayload {
	t.Helper()
	var p orderPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	return p
}

func TestOrderPlaced(t *testing.T) {
	msgs := OrderPlaced(testOrder())
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	types := []string{EventOrderPlaced, EventNotifyBuyer, EventNotifyAdmin}
	for i, want := range types {
		if msgs[i].EventType != want {
			t.Fatalf("expected event %s at %d, got %s", want, i, msgs[i].EventType)
		}
		if msgs[i].AggregateType != aggregateOrder || msgs[i].AggregateID != "order-1" {
			t.Fatalf("unexpected aggregate: %+v", msgs[i])
		}
	}

	buyer := decodePayload(t, msgs[1])
	if len(buyer.Lines) != 1 {
		t.Fatalf("buyer notification should carry lines, got %d", len(buyer.Lines))
	}
	if buyer.Lines[0].ProductName != "Widget" {
		t.Fatalf("unexpected line: %+v", buyer.Lines[0])
	}

	// Админская сводка без позиций.
	admin := decodePayload(t, msgs[2])
	if len(admin.Lines) != 0 {
		t.Fatalf("admin notification should be short, got %d lines", len(admin.Lines))
	}
}

func TestOrderCancelled(t *testing.T) {
	order := testOrder()
	order.Status = domain.OrderStatusCancelled

	msgs := OrderCancelled(order, "customer request")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].EventType != EventOrderCancelled {
		t.Fatalf("expected %s, got %s", EventOrderCancelled, msgs[0].EventType)
	}

	p := decodePayload(t, msgs[0])
	if p.Reason != "customer request" {
		t.Fatalf("expected reason in payload, got %q", p.Reason)
	}
	if p.Status != string(domain.OrderStatusCancelled) {
		t.Fatalf("expected cancelled status, got %s", p.Status)
	}
}

func TestOrderStatusChanged(t *testing.T) {
	order := testOrder()
	order.Status = domain.OrderStatusShipped

	msgs := OrderStatusChanged(order)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].EventType != EventOrderStatusChanged {
		t.Fatalf("expected %s, got %s", EventOrderStatusChanged, msgs[0].EventType)
	}
	if msgs[1].EventType != EventNotifyBuyer {
		t.Fatalf("expected %s, got %s", EventNotifyBuyer, msgs[1].EventType)
	}

	p := decodePayload(t, msgs[0])
	if p.Status != string(domain.OrderStatusShipped) {
		t.Fatalf("expected shipped, got %s", p.Status)
	}
}
