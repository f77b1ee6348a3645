package cart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newFixture(t *testing.T, stock int32) (*memory.Store, *cart.Service) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(domain.Product{
		ID:         "product-1",
		CategoryID: "category-1",
		Name:       "Widget",
		Price:      decimal.RequireFromString("5.00"),
		Stock:      stock,
	}))
	return store, cart.New(store.Carts(), store.Products(), loggerForTests())
}

func TestUpsert_AddsLine(t *testing.T) {
	_, svc := newFixture(t, 10)

	line, err := svc.Upsert("user-1", "product-1", 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, line.Qty)
	require.False(t, line.Clamped)
	require.Equal(t, "Widget", line.Product.Name)
}

func TestUpsert_ReplacesQty(t *testing.T) {
	_, svc := newFixture(t, 10)

	_, err := svc.Upsert("user-1", "product-1", 3)
	require.NoError(t, err)
	_, err = svc.Upsert("user-1", "product-1", 7)
	require.NoError(t, err)

	lines, err := svc.Get("user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.EqualValues(t, 7, lines[0].Qty)
}

func TestUpsert_ClampsToStock(t *testing.T) {
	_, svc := newFixture(t, 4)

	line, err := svc.Upsert("user-1", "product-1", 10)
	require.NoError(t, err)
	require.True(t, line.Clamped)
	require.EqualValues(t, 4, line.Qty)
}

func TestUpsert_ZeroStockRemovesLine(t *testing.T) {
	store, svc := newFixture(t, 5)
	_, err := svc.Upsert("user-1", "product-1", 2)
	require.NoError(t, err)

	// Сток иссяк после добавления в корзину.
	product, _ := store.Products().Get("product-1")
	product.Stock = 0
	require.NoError(t, store.Products().Update(product))

	line, err := svc.Upsert("user-1", "product-1", 2)
	require.NoError(t, err)
	require.True(t, line.Clamped)
	require.EqualValues(t, 0, line.Qty)

	lines, _ := svc.Get("user-1")
	require.Empty(t, lines)
}

func TestUpsert_Validation(t *testing.T) {
	_, svc := newFixture(t, 10)

	_, err := svc.Upsert("", "product-1", 1)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Upsert("user-1", "product-1", 0)
	require.ErrorIs(t, err, domain.ErrQtyInvalid)

	_, err = svc.Upsert("user-1", "missing", 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGet_SkipsDeletedProducts(t *testing.T) {
	store, svc := newFixture(t, 10)
	require.NoError(t, store.Products().Create(domain.Product{
		ID: "product-2", CategoryID: "category-1", Name: "Gadget", Stock: 5,
	}))

	_, err := svc.Upsert("user-1", "product-1", 1)
	require.NoError(t, err)
	_, err = svc.Upsert("user-1", "product-2", 1)
	require.NoError(t, err)

	require.NoError(t, store.Products().Delete("product-2"))

	lines, err := svc.Get("user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "product-1", lines[0].Product.ID)
}

func TestRemoveAndClear(t *testing.T) {
	_, svc := newFixture(t, 10)
	_, err := svc.Upsert("user-1", "product-1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Remove("user-1", "product-1"))
	require.ErrorIs(t, svc.Remove("user-1", "product-1"), domain.ErrCartLineNotFound)

	_, err = svc.Upsert("user-1", "product-1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear("user-1"))

	lines, _ := svc.Get("user-1")
	require.Empty(t, lines)

	require.ErrorIs(t, svc.Remove("", "product-1"), domain.ErrForbidden)
	require.ErrorIs(t, svc.Clear(""), domain.ErrForbidden)
}
