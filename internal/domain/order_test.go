package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:                "order-1",
		Number:            "ORD-1-ABC",
		UserID:            "user-1",
		Status:            domain.OrderStatusPending,
		ShippingAddressID: "addr-1",
		BillingAddressID:  "addr-1",
		TotalPrice:        decimal.NewFromInt(500),
		Lines: []domain.OrderLine{
			{
				ID:          "line-1",
				OrderID:     "order-1",
				ProductID:   "product-1",
				ProductName: "Widget",
				Qty:         5,
				Price:       decimal.NewFromInt(100),
				CreatedAt:   now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *domain.Order)
		wantErr error
	}{
		{
			name:    "missing user",
			mutate:  func(o *domain.Order) { o.UserID = "" },
			wantErr: domain.ErrUserRequired,
		},
		{
			name:    "missing number",
			mutate:  func(o *domain.Order) { o.Number = "" },
			wantErr: domain.ErrOrderNumberRequired,
		},
		{
			name:    "missing shipping address",
			mutate:  func(o *domain.Order) { o.ShippingAddressID = "" },
			wantErr: domain.ErrShippingAddressRequired,
		},
		{
			name: "no lines",
			mutate: func(o *domain.Order) {
				o.Lines = nil
				o.TotalPrice = decimal.Zero
			},
			wantErr: domain.ErrLinesRequired,
		},
		{
			name:    "zero qty line",
			mutate:  func(o *domain.Order) { o.Lines[0].Qty = 0 },
			wantErr: domain.ErrLineQtyInvalid,
		},
		{
			name:    "negative line price",
			mutate:  func(o *domain.Order) { o.Lines[0].Price = decimal.NewFromInt(-1) },
			wantErr: domain.ErrLinePriceInvalid,
		},
		{
			name:    "total mismatch",
			mutate:  func(o *domain.Order) { o.TotalPrice = decimal.NewFromInt(1) },
			wantErr: domain.ErrTotalMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mutate(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, err := range errs {
				if err == tc.wantErr {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v in %v", tc.wantErr, errs)
			}
		})
	}
}

func TestOrderTotalMatchesLinesSum(t *testing.T) {
	order := makeOrder()
	order.Lines = append(order.Lines, domain.OrderLine{
		ID:          "line-2",
		ProductID:   "product-2",
		ProductName: "Gadget",
		Qty:         3,
		Price:       decimal.RequireFromString("19.99"),
	})
	order.TotalPrice = decimal.RequireFromString("559.97")

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus("  Shipped ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", status)
	}

	if _, err := domain.ParseOrderStatus("refunded"); err != domain.ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if domain.OrderStatusPending.Terminal() {
		t.Fatal("pending should not be terminal")
	}
	if !domain.OrderStatusDelivered.Terminal() {
		t.Fatal("delivered should be terminal")
	}
	if !domain.OrderStatusCancelled.Terminal() {
		t.Fatal("cancelled should be terminal")
	}
}

func TestOrderStatusUserCancellable(t *testing.T) {
	cancellable := map[domain.OrderStatus]bool{
		domain.OrderStatusPending:    true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    false,
		domain.OrderStatusDelivered:  false,
		domain.OrderStatusCancelled:  false,
	}
	for status, want := range cancellable {
		if got := status.UserCancellable(); got != want {
			t.Fatalf("%s: expected UserCancellable=%v, got %v", status, want, got)
		}
	}
}

func TestAppendNote(t *testing.T) {
	order := makeOrder()

	order.AppendNote("checkout", "leave at the door")
	order.AppendNote("cancel", "changed my mind")

	want := "[checkout] leave at the door\n[cancel] changed my mind"
	if order.Notes != want {
		t.Fatalf("expected notes %q, got %q", want, order.Notes)
	}
}

func TestAppendNote_EmptyReasonIgnored(t *testing.T) {
	order := makeOrder()
	order.AppendNote("cancel", "   ")
	if order.Notes != "" {
		t.Fatalf("expected empty notes, got %q", order.Notes)
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Now()
	number := domain.NewOrderNumber(now)

	if !strings.HasPrefix(number, "ORD-") {
		t.Fatalf("expected ORD- prefix, got %s", number)
	}
	if number == domain.NewOrderNumber(now) {
		t.Fatal("expected unique numbers for repeated calls")
	}
}
