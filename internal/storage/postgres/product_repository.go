package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

const productColumns = `id, category_id, name, slug, description, price, stock, created_at, updated_at`

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description,
		&p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *productRepository) List(limit int) ([]domain.Product, error) {
	return r.list(`SELECT `+productColumns+` FROM products ORDER BY name, id`, limit)
}

func (r *productRepository) ListByCategory(categoryID string, limit int) ([]domain.Product, error) {
	return r.list(`
		SELECT `+productColumns+` FROM products
		WHERE category_id = $1
		ORDER BY name, id
	`, limit, categoryID)
}

// SearchByPrefix опирается на индекс по LOWER(name) с text_pattern_ops.
func (r *productRepository) SearchByPrefix(prefix string, limit int) ([]domain.Product, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	return r.list(`
		SELECT `+productColumns+` FROM products
		WHERE LOWER(name) LIKE $1 || '%'
		ORDER BY name, id
	`, limit, prefix)
}

func (r *productRepository) list(query string, limit int, args ...any) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description,
			&p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) Create(p domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, category_id, name, slug, description, price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(p domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = $2,
		    name = $3,
		    slug = $4,
		    description = $5,
		    price = $6,
		    stock = $7,
		    updated_at = $8
		WHERE id = $1
	`, p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete отклоняет удаление, пока на товар ссылаются позиции заказов.
func (r *productRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var referenced bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1)
	`, id).Scan(&referenced); err != nil {
		return fmt.Errorf("check product references: %w", err)
	}
	if referenced {
		return domain.ErrProductReferenced
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DecrementStock использует тот же условный UPDATE, что и транзакция
// оформления заказа.
func (r *productRepository) DecrementStock(productID string, qty int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = decrementStockTx(ctx, tx, productID, qty, time.Now().UTC()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit decrement stock: %w", err)
	}
	return nil
}

func (r *productRepository) IncrementStock(productID string, qty int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = $3
		WHERE id = $1
	`, productID, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
