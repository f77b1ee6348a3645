package memory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

// helper собирает магазин с одним товаром и корзиной пользователя.
func newStoreWithProduct(stock int32) *memory.Store {
	store := memory.NewStore()
	_ = store.Products().Create(domain.Product{
		ID:         "product-1",
		CategoryID: "category-1",
		Name:       "Widget",
		Price:      decimal.NewFromInt(100),
		Stock:      stock,
	})
	return store
}

func newOrder(id, number string, qty int32) domain.Order {
	now := time.Now().UTC()
	price := decimal.NewFromInt(100)
	return domain.Order{
		ID:                id,
		Number:            number,
		UserID:            "user-1",
		Status:            domain.OrderStatusPending,
		ShippingAddressID: "addr-1",
		BillingAddressID:  "addr-1",
		TotalPrice:        price.Mul(decimal.NewFromInt(int64(qty))),
		Lines: []domain.OrderLine{
			{
				ID:          id + "-line-1",
				OrderID:     id,
				ProductID:   "product-1",
				ProductName: "Widget",
				Qty:         qty,
				Price:       price,
				CreatedAt:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func notifications(orderID string) []domain.OutboxMessage {
	return []domain.OutboxMessage{
		{
			AggregateType: "order",
			AggregateID:   orderID,
			EventType:     "order.placed",
			Payload:       []byte(`{}`),
		},
	}
}

func TestOrderRepository_PlaceOrder(t *testing.T) {
	store := newStoreWithProduct(10)
	_ = store.Carts().Upsert(domain.CartLine{UserID: "user-1", ProductID: "product-1", Qty: 3})

	order := newOrder("order-1", "ORD-1", 3)
	if err := store.Orders().PlaceOrder(order, notifications("order-1")); err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	stored, err := store.Orders().Get("order-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", stored.Status)
	}

	product, _ := store.Products().Get("product-1")
	if product.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", product.Stock)
	}

	cart, _ := store.Carts().ListByUser("user-1")
	if len(cart) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d lines", len(cart))
	}

	pending, _ := store.Outbox().PullPending(10)
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(pending))
	}
}

func TestOrderRepository_PlaceOrder_InsufficientStock(t *testing.T) {
	store := newStoreWithProduct(2)
	_ = store.Carts().Upsert(domain.CartLine{UserID: "user-1", ProductID: "product-1", Qty: 5})

	order := newOrder("order-1", "ORD-1", 5)
	err := store.Orders().PlaceOrder(order, notifications("order-1"))
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// Отказ не оставляет следов: ни заказа, ни списания, ни outbox, корзина цела.
	if _, err := store.Orders().Get("order-1"); err != domain.ErrOrderNotFound {
		t.Fatalf("expected no order persisted, got %v", err)
	}
	product, _ := store.Products().Get("product-1")
	if product.Stock != 2 {
		t.Fatalf("expected untouched stock 2, got %d", product.Stock)
	}
	cart, _ := store.Carts().ListByUser("user-1")
	if len(cart) != 1 {
		t.Fatalf("expected cart preserved, got %d lines", len(cart))
	}
	pending, _ := store.Outbox().PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected no outbox messages, got %d", len(pending))
	}
}

func TestOrderRepository_PlaceOrder_MultiLineShortfallAtomicity(t *testing.T) {
	store := newStoreWithProduct(10)
	_ = store.Products().Create(domain.Product{
		ID:         "product-2",
		CategoryID: "category-1",
		Name:       "Gadget",
		Price:      decimal.NewFromInt(50),
		Stock:      1,
	})

	order := newOrder("order-1", "ORD-1", 3)
	order.Lines = append(order.Lines, domain.OrderLine{
		ID:          "order-1-line-2",
		OrderID:     "order-1",
		ProductID:   "product-2",
		ProductName: "Gadget",
		Qty:         2,
		Price:       decimal.NewFromInt(50),
	})
	order.TotalPrice = decimal.NewFromInt(400)

	err := store.Orders().PlaceOrder(order, nil)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// Вторая позиция не прошла — первая тоже не списана.
	first, _ := store.Products().Get("product-1")
	if first.Stock != 10 {
		t.Fatalf("expected stock 10 for product-1, got %d", first.Stock)
	}
	second, _ := store.Products().Get("product-2")
	if second.Stock != 1 {
		t.Fatalf("expected stock 1 for product-2, got %d", second.Stock)
	}
}

func TestOrderRepository_PlaceOrder_NumberConflict(t *testing.T) {
	store := newStoreWithProduct(10)

	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-SAME", 1), nil); err != nil {
		t.Fatalf("first place failed: %v", err)
	}
	err := store.Orders().PlaceOrder(newOrder("order-2", "ORD-SAME", 1), nil)
	if err != domain.ErrOrderNumberConflict {
		t.Fatalf("expected ErrOrderNumberConflict, got %v", err)
	}
}

func TestOrderRepository_Cancel_RestoresStock(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-1", 4), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	cancelled, err := store.Orders().Cancel("order-1", "customer request", notifications("order-1"))
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.Notes != "[cancel] customer request" {
		t.Fatalf("unexpected notes: %q", cancelled.Notes)
	}

	product, _ := store.Products().Get("product-1")
	if product.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", product.Stock)
	}
}

func TestOrderRepository_Cancel_Idempotent(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-1", 4), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	if _, err := store.Orders().Cancel("order-1", "first", nil); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if _, err := store.Orders().Cancel("order-1", "second", nil); err != domain.ErrOrderAlreadyCancelled {
		t.Fatalf("expected ErrOrderAlreadyCancelled, got %v", err)
	}

	// Сток возвращён ровно один раз.
	product, _ := store.Products().Get("product-1")
	if product.Stock != 10 {
		t.Fatalf("expected stock 10 after repeated cancel, got %d", product.Stock)
	}
}

func TestOrderRepository_Cancel_NotFound(t *testing.T) {
	store := memory.NewStore()
	if _, err := store.Orders().Cancel("missing", "", nil); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-1", 1), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	updated, err := store.Orders().UpdateStatus("order-1", domain.OrderStatusShipped, "left warehouse", 0, nil)
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}
	if updated.Version != 1 {
		t.Fatalf("expected version 1, got %d", updated.Version)
	}

	// Статус переходит без складских эффектов.
	product, _ := store.Products().Get("product-1")
	if product.Stock != 9 {
		t.Fatalf("expected stock 9, got %d", product.Stock)
	}
}

func TestOrderRepository_UpdateStatus_VersionConflict(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-1", 1), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	_, err := store.Orders().UpdateStatus("order-1", domain.OrderStatusShipped, "", 42, nil)
	if !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestOrderRepository_GetByNumber(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-TRACK", 1), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	order, err := store.Orders().GetByNumber("ORD-TRACK")
	if err != nil {
		t.Fatalf("get by number failed: %v", err)
	}
	if order.ID != "order-1" {
		t.Fatalf("expected order-1, got %s", order.ID)
	}

	if _, err := store.Orders().GetByNumber("ORD-MISSING"); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListByUser_NewestFirst(t *testing.T) {
	store := newStoreWithProduct(100)

	base := time.Now().UTC()
	for i, id := range []string{"order-1", "order-2", "order-3"} {
		order := newOrder(id, "ORD-"+id, 1)
		order.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.Orders().PlaceOrder(order, nil); err != nil {
			t.Fatalf("place %s failed: %v", id, err)
		}
	}

	orders, err := store.Orders().ListByUser("user-1", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "order-3" || orders[1].ID != "order-2" {
		t.Fatalf("expected newest first, got %s, %s", orders[0].ID, orders[1].ID)
	}
}

// Конкурирующие оформления не могут продать больше, чем есть на складе.
func TestOrderRepository_ConcurrentPlaceOrder_NoOversell(t *testing.T) {
	const (
		stock   = int32(10)
		workers = 50
	)
	store := newStoreWithProduct(stock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := newOrder(uuid.NewString(), domain.NewOrderNumber(time.Now()), 1)
			if err := store.Orders().PlaceOrder(order, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != stock {
		t.Fatalf("expected exactly %d successful orders, got %d", stock, succeeded)
	}
	product, _ := store.Products().Get("product-1")
	if product.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", product.Stock)
	}
}
