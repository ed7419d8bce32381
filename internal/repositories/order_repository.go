package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/utils"
	"github.com/google/uuid"
)

// ErrStockConflict is returned by CheckoutTx.DecrementStock when applying the
// decrement would drive stock_quantity negative. The guard in the UPDATE is
// the backstop for concurrent placements that passed the snapshot check.
var ErrStockConflict = errors.New("insufficient stock for decrement")

type OrderRepository interface {
	// BeginCheckout acquires a transactional handle scoped to one order
	// placement. The caller owns it exclusively and must Commit or Rollback
	// on every exit path.
	BeginCheckout(ctx context.Context) (CheckoutTx, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
}

// CheckoutTx exposes the four checkout writes plus the snapshot read, all
// issued on one underlying database transaction.
type CheckoutTx interface {
	ListCartWithProductInfo(ctx context.Context, userID uuid.UUID) ([]models.CheckoutLine, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	AddOrderItem(ctx context.Context, item *models.OrderItem) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Commit() error
	Rollback() error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) BeginCheckout(ctx context.Context) (CheckoutTx, error) {

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &checkoutTx{tx: tx}, nil
}

type checkoutTx struct {
	tx *sql.Tx
}

func (c *checkoutTx) ListCartWithProductInfo(ctx context.Context, userID uuid.UUID) ([]models.CheckoutLine, error) {

	// FOR UPDATE locks the product rows for the rest of the transaction, so
	// two placements touching the same product serialize here.
	query := `
		SELECT ci.product_id, ci.quantity, p.price, p.stock_quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p`

	rows, err := c.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	defer rows.Close()

	var lines []models.CheckoutLine

	for rows.Next() {

		var line models.CheckoutLine

		err := rows.Scan(&line.ProductID, &line.Quantity, &line.UnitPrice, &line.StockQuantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart snapshot: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (c *checkoutTx) CreateOrder(ctx context.Context, order *models.Order) error {

	query := `
		INSERT INTO orders (id, user_id, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := c.tx.QueryRowContext(ctx, query, order.ID, order.UserID, order.Status, order.TotalAmount).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (c *checkoutTx) AddOrderItem(ctx context.Context, item *models.OrderItem) error {

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := c.tx.ExecContext(ctx, query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	return nil
}

func (c *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1`

	result, err := c.tx.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrStockConflict
	}

	return nil
}

func (c *checkoutTx) ClearCart(ctx context.Context, userID uuid.UUID) error {

	query := `DELETE FROM cart_items WHERE user_id = $1`

	_, err := c.tx.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

func (c *checkoutTx) Commit() error {
	return c.tx.Commit()
}

func (c *checkoutTx) Rollback() error {
	return c.tx.Rollback()
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: id}

	query := `
		SELECT user_id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	query = `
		SELECT id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1`

	rows, err := r.DB.QueryContext(dbCtx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {

		var item models.OrderItem

		err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = order.ID

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		var order models.Order

		order.UserID = userID

		err := rows.Scan(&order.ID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
