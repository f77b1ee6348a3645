package memory_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestProductRepository_CreateGet(t *testing.T) {
	store := memory.NewStore()
	repo := store.Products()

	product := domain.Product{
		ID:         "product-1",
		CategoryID: "category-1",
		Name:       "Widget",
		Price:      decimal.RequireFromString("9.99"),
		Stock:      5,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Price.Equal(product.Price) {
		t.Fatalf("expected price %s, got %s", product.Price, stored.Price)
	}

	if _, err := repo.Get("missing"); err != domain.ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_SearchByPrefix(t *testing.T) {
	store := memory.NewStore()
	repo := store.Products()

	for _, name := range []string{"Bolt M6", "Bolt M8", "Nut M6"} {
		_ = repo.Create(domain.Product{ID: name, CategoryID: "c", Name: name})
	}

	found, err := repo.SearchByPrefix("bolt", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}
	if found[0].Name != "Bolt M6" {
		t.Fatalf("expected sorted results, got %s first", found[0].Name)
	}
}

func TestProductRepository_ListByCategory(t *testing.T) {
	store := memory.NewStore()
	repo := store.Products()

	_ = repo.Create(domain.Product{ID: "p1", CategoryID: "cat-1", Name: "A"})
	_ = repo.Create(domain.Product{ID: "p2", CategoryID: "cat-2", Name: "B"})

	products, err := repo.ListByCategory("cat-1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("expected only p1, got %v", products)
	}
}

func TestProductRepository_DecrementStock(t *testing.T) {
	store := memory.NewStore()
	repo := store.Products()
	_ = repo.Create(domain.Product{ID: "p1", CategoryID: "c", Name: "Widget", Stock: 3})

	if err := repo.DecrementStock("p1", 2); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	err := repo.DecrementStock("p1", 2)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// Неудачное списание не трогает строку.
	product, _ := repo.Get("p1")
	if product.Stock != 1 {
		t.Fatalf("expected stock 1, got %d", product.Stock)
	}

	if err := repo.IncrementStock("p1", 2); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	product, _ = repo.Get("p1")
	if product.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", product.Stock)
	}
}

func TestProductRepository_DeleteReferenced(t *testing.T) {
	store := newStoreWithProduct(10)
	if err := store.Orders().PlaceOrder(newOrder("order-1", "ORD-1", 1), nil); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	if err := store.Products().Delete("product-1"); err != domain.ErrProductReferenced {
		t.Fatalf("expected ErrProductReferenced, got %v", err)
	}
	if _, err := store.Products().Get("product-1"); err != nil {
		t.Fatalf("referenced product should remain, got %v", err)
	}
}

func TestProductRepository_DeleteUnreferenced(t *testing.T) {
	store := newStoreWithProduct(10)

	if err := store.Products().Delete("product-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Products().Get("product-1"); err != domain.ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCartRepository_UpsertRemoveClear(t *testing.T) {
	store := memory.NewStore()
	repo := store.Carts()

	if err := repo.Upsert(domain.CartLine{UserID: "u1", ProductID: "p1", Qty: 2}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	// Повторный upsert заменяет количество.
	if err := repo.Upsert(domain.CartLine{UserID: "u1", ProductID: "p1", Qty: 5}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	lines, _ := repo.ListByUser("u1")
	if len(lines) != 1 || lines[0].Qty != 5 {
		t.Fatalf("expected one line with qty 5, got %v", lines)
	}

	if err := repo.Upsert(domain.CartLine{UserID: "u1", ProductID: "p2", Qty: 0}); err != domain.ErrQtyInvalid {
		t.Fatalf("expected ErrQtyInvalid, got %v", err)
	}

	if err := repo.Remove("u1", "missing"); err != domain.ErrCartLineNotFound {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
	if err := repo.Remove("u1", "p1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	_ = repo.Upsert(domain.CartLine{UserID: "u1", ProductID: "p1", Qty: 1})
	if err := repo.Clear("u1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	lines, _ = repo.ListByUser("u1")
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}
