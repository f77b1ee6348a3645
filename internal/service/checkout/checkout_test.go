package checkout_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

// fixture наполняет магазин пользователем, адресом, товаром и корзиной.
func newFixture(t *testing.T, stock int32) (*memory.Store, *checkout.Service) {
	t.Helper()
	store := memory.NewStore()

	require.NoError(t, store.Addresses().Create(domain.Address{
		ID:     "addr-1",
		UserID: "user-1",
		Type:   domain.AddressTypeDelivery,
		City:   "Berlin",
		Text:   "Examplestr. 1",
	}))
	require.NoError(t, store.Products().Create(domain.Product{
		ID:         "product-1",
		CategoryID: "category-1",
		Name:       "Widget",
		Price:      decimal.RequireFromString("19.99"),
		Stock:      stock,
	}))
	require.NoError(t, store.Carts().Upsert(domain.CartLine{
		UserID:    "user-1",
		ProductID: "product-1",
		Qty:       2,
	}))

	svc := checkout.NewWithoutMetrics(
		store.Orders(), store.Products(), store.Carts(), store.Addresses(),
		loggerForTests(),
	)
	return store, svc
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	store, svc := newFixture(t, 10)

	order, err := svc.PlaceOrder(checkout.Request{
		UserID:            "user-1",
		ShippingAddressID: "addr-1",
		Note:              "ring twice",
	})
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.NotEmpty(t, order.Number)
	require.Len(t, order.Lines, 1)
	require.Equal(t, "Widget", order.Lines[0].ProductName)
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("39.98")))
	require.Equal(t, "[checkout] ring twice", order.Notes)
	// Пустой платёжный адрес наследует адрес доставки.
	require.Equal(t, "addr-1", order.BillingAddressID)

	product, err := store.Products().Get("product-1")
	require.NoError(t, err)
	require.EqualValues(t, 8, product.Stock)

	cart, err := store.Carts().ListByUser("user-1")
	require.NoError(t, err)
	require.Empty(t, cart)

	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
}

func TestPlaceOrder_PriceFrozenAtCheckout(t *testing.T) {
	store, svc := newFixture(t, 10)

	order, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.NoError(t, err)

	// Дорожаем товар после оформления: заказ этого не видит.
	product, _ := store.Products().Get("product-1")
	product.Price = decimal.RequireFromString("99.99")
	require.NoError(t, store.Products().Update(product))

	stored, err := store.Orders().Get(order.ID)
	require.NoError(t, err)
	require.True(t, stored.Lines[0].Price.Equal(decimal.RequireFromString("19.99")))
	require.True(t, stored.TotalPrice.Equal(decimal.RequireFromString("39.98")))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	store, svc := newFixture(t, 10)
	require.NoError(t, store.Carts().Clear("user-1"))

	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	store, svc := newFixture(t, 1)

	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.True(t, domain.IsInsufficientStock(err))

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, "Widget", stockErr.ProductName)
	require.EqualValues(t, 1, stockErr.Available)
	require.EqualValues(t, 2, stockErr.Requested)

	// Отказ ничего не меняет: корзина и сток на месте, заказа нет.
	cart, _ := store.Carts().ListByUser("user-1")
	require.Len(t, cart, 1)
	product, _ := store.Products().Get("product-1")
	require.EqualValues(t, 1, product.Stock)
	orders, _ := store.Orders().ListByUser("user-1", 0)
	require.Empty(t, orders)
}

func TestPlaceOrder_AnonymousRejected(t *testing.T) {
	_, svc := newFixture(t, 10)

	_, err := svc.PlaceOrder(checkout.Request{ShippingAddressID: "addr-1"})
	require.ErrorIs(t, err, domain.ErrUserRequired)
}

func TestPlaceOrder_ShippingAddressRequired(t *testing.T) {
	_, svc := newFixture(t, 10)

	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1"})
	require.ErrorIs(t, err, domain.ErrShippingAddressRequired)
}

func TestPlaceOrder_ForeignAddressRejected(t *testing.T) {
	store, svc := newFixture(t, 10)
	require.NoError(t, store.Addresses().Create(domain.Address{
		ID:     "addr-2",
		UserID: "user-2",
		Type:   domain.AddressTypeDelivery,
	}))

	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-2"})
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestPlaceOrder_BillingTypeAddressRejectedForShipping(t *testing.T) {
	store, svc := newFixture(t, 10)
	require.NoError(t, store.Addresses().Create(domain.Address{
		ID:     "addr-bill",
		UserID: "user-1",
		Type:   domain.AddressTypeBilling,
	}))

	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-bill"})
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestPlaceOrder_ExplicitBillingAddress(t *testing.T) {
	store, svc := newFixture(t, 10)
	require.NoError(t, store.Addresses().Create(domain.Address{
		ID:     "addr-bill",
		UserID: "user-1",
		Type:   domain.AddressTypeBilling,
	}))

	order, err := svc.PlaceOrder(checkout.Request{
		UserID:            "user-1",
		ShippingAddressID: "addr-1",
		BillingAddressID:  "addr-bill",
	})
	require.NoError(t, err)
	require.Equal(t, "addr-bill", order.BillingAddressID)
}

// numberConflictRepo симулирует занятый номер заказа первые n попыток.
type numberConflictRepo struct {
	domain.OrderRepository
	conflicts int
	attempts  int
}

func (r *numberConflictRepo) PlaceOrder(order domain.Order, notifications []domain.OutboxMessage) error {
	r.attempts++
	if r.attempts <= r.conflicts {
		return domain.ErrOrderNumberConflict
	}
	return r.OrderRepository.PlaceOrder(order, notifications)
}

func TestPlaceOrder_RetriesOnNumberConflict(t *testing.T) {
	store, _ := newFixture(t, 10)
	repo := &numberConflictRepo{OrderRepository: store.Orders(), conflicts: 2}

	svc := checkout.NewWithoutMetrics(repo, store.Products(), store.Carts(), store.Addresses(), loggerForTests())
	order, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.NoError(t, err)
	require.Equal(t, 3, repo.attempts)
	require.NotEmpty(t, order.Number)
}

func TestPlaceOrder_GivesUpAfterMaxNumberAttempts(t *testing.T) {
	store, _ := newFixture(t, 10)
	repo := &numberConflictRepo{OrderRepository: store.Orders(), conflicts: 100}

	svc := checkout.NewWithoutMetrics(repo, store.Products(), store.Carts(), store.Addresses(), loggerForTests())
	_, err := svc.PlaceOrder(checkout.Request{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.ErrorIs(t, err, domain.ErrOrderNumberConflict)
	require.Equal(t, 5, repo.attempts)
}
