package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	orderNumberConstraint = "orders_order_number_key"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// PlaceOrder сохраняет заказ, списывает сток, очищает корзину и кладёт
// уведомления в outbox одной транзакцией. Конкурирующие оформления на одном
// товаре сериализует row-level lock условного UPDATE по строке products.
func (r *orderRepository) PlaceOrder(order domain.Order, notifications []domain.OutboxMessage) error {
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, status, shipping_address_id, billing_address_id,
			total_price, notes, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		order.ID, order.Number, order.UserID, string(order.Status),
		order.ShippingAddressID, order.BillingAddressID,
		order.TotalPrice, order.Notes, order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == orderNumberConstraint {
				return domain.ErrOrderNumberConflict
			}
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, product_id, product_name, qty, price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID, order.ID, line.ProductID, line.ProductName, line.Qty, line.Price, line.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}

		if err = decrementStockTx(ctx, tx, line.ProductID, line.Qty, order.CreatedAt); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE user_id = $1
	`, order.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err = enqueueOutboxTx(ctx, tx, notifications); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit place order: %w", err)
	}

	return nil
}

// Cancel возвращает сток, переводит заказ в cancelled и дописывает причину.
// SELECT ... FOR UPDATE сериализует гонку отмены с админским обновлением:
// проигравший видит уже отменённый заказ и стока повторно не начисляет.
func (r *orderRepository) Cancel(id, note string, notifications []domain.OutboxMessage) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		status string
		notes  string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, notes FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&status, &notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrOrderNotFound
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("lock order for cancel: %w", err)
	}
	if domain.OrderStatus(status) == domain.OrderStatusCancelled {
		err = domain.ErrOrderAlreadyCancelled
		return domain.Order{}, err
	}

	now := time.Now().UTC()

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, qty FROM order_lines WHERE order_id = $1
	`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order lines for restock: %w", err)
	}
	type restock struct {
		productID string
		qty       int32
	}
	restocks := make([]restock, 0)
	for rows.Next() {
		var item restock
		if err = rows.Scan(&item.productID, &item.qty); err != nil {
			rows.Close()
			return domain.Order{}, fmt.Errorf("scan restock line: %w", err)
		}
		restocks = append(restocks, item)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("iterate restock lines: %w", err)
	}

	for _, item := range restocks {
		if err = incrementStockTx(ctx, tx, item.productID, item.qty, now); err != nil {
			return domain.Order{}, err
		}
	}

	helper := domain.Order{Notes: notes}
	helper.AppendNote("cancel", note)

	if _, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    notes = $3,
		    version = version + 1,
		    updated_at = $4
		WHERE id = $1
	`, id, string(domain.OrderStatusCancelled), helper.Notes, now); err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err = enqueueOutboxTx(ctx, tx, notifications); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit cancel order: %w", err)
	}

	return r.Get(id)
}

// UpdateStatus переводит заказ в новый статус без складских эффектов.
// Optimistic locking: несовпадение версии означает, что заказ успели
// изменить, и вызывающая сторона должна перечитать его.
func (r *orderRepository) UpdateStatus(id string, status domain.OrderStatus, note string, version int64, notifications []domain.OutboxMessage) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var notes string
	err = tx.QueryRowContext(ctx, `
		SELECT notes FROM orders WHERE id = $1 AND version = $2 FOR UPDATE
	`, id, version).Scan(&notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			exists, err = orderExistsTx(ctx, tx, id)
			if err != nil {
				return domain.Order{}, err
			}
			if !exists {
				err = domain.ErrOrderNotFound
			} else {
				err = domain.ErrOrderVersionConflict
			}
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("lock order for update: %w", err)
	}

	helper := domain.Order{Notes: notes}
	helper.AppendNote("status", note)

	if _, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    notes = $3,
		    version = version + 1,
		    updated_at = $4
		WHERE id = $1
	`, id, string(status), helper.Notes, time.Now().UTC()); err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err = enqueueOutboxTx(ctx, tx, notifications); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit update status: %w", err)
	}

	return r.Get(id)
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getWhere(ctx, "id = $1", id)
}

func (r *orderRepository) GetByNumber(number string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getWhere(ctx, "order_number = $1", number)
}

func (r *orderRepository) getWhere(ctx context.Context, where string, arg any) (domain.Order, error) {
	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, status, shipping_address_id, billing_address_id,
		       total_price, notes, version, created_at, updated_at
		FROM orders
		WHERE `+where,
		arg,
	).Scan(
		&order.ID, &order.Number, &order.UserID, &status,
		&order.ShippingAddressID, &order.BillingAddressID,
		&order.TotalPrice, &order.Notes, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.listWhere(ctx, "WHERE user_id = $1", limit, userID)
}

func (r *orderRepository) List(limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.listWhere(ctx, "", limit)
}

func (r *orderRepository) listWhere(ctx context.Context, where string, limit int, args ...any) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, status, shipping_address_id, billing_address_id,
		       total_price, notes, version, created_at, updated_at
		FROM orders ` + where + `
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.Number, &order.UserID, &status,
			&order.ShippingAddressID, &order.BillingAddressID,
			&order.TotalPrice, &order.Notes, &order.Version, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, qty, price, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.Qty, &line.Price, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

// decrementStockTx — условное списание: защита от ухода стока в минус даже
// если вызывающая сторона свою проверку пропустила.
func decrementStockTx(ctx context.Context, tx *sql.Tx, productID string, qty int32, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    updated_at = $3
		WHERE id = $1
		  AND stock >= $2
	`, productID, qty, now)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected == 0 {
		var (
			name  string
			stock int32
		)
		scanErr := tx.QueryRowContext(ctx, `
			SELECT name, stock FROM products WHERE id = $1
		`, productID).Scan(&name, &stock)
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("inspect product after failed decrement: %w", scanErr)
		}
		return &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: name,
			Available:   stock,
			Requested:   qty,
		}
	}
	return nil
}

func incrementStockTx(ctx context.Context, tx *sql.Tx, productID string, qty int32, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = $3
		WHERE id = $1
	`, productID, qty, now); err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
