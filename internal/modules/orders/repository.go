package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/rs/zerolog"
)

const selectOrders = `
	SELECT o.id, o.reference, o.product_id, p.name AS product_name, p.price AS product_price,
	       o.consumer_id, c.username AS consumer_name, o.farmer_id, f.username AS farmer_name,
	       o.quantity, o.status, o.created_at
	FROM orders o
	LEFT JOIN products p ON p.id = o.product_id
	LEFT JOIN users c ON c.id = o.consumer_id
	LEFT JOIN users f ON f.id = o.farmer_id`

// stockRow is the product state an order transaction needs
type stockRow struct {
	Name     string `db:"name"`
	Quantity int    `db:"quantity"`
	FarmerID int64  `db:"farmer_id"`
}

// Repository handles order database operations. The *Tx methods run inside a caller's
// transaction.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a new order repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "orders").Logger(),
	}
}

// DB returns the handle transactions are started on
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

func (r *Repository) productTx(tx *sqlx.Tx, productID int64) (*stockRow, error) {
	var row stockRow
	err := tx.Get(&row, `SELECT name, quantity, farmer_id FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product %d: %w", productID, err)
	}
	return &row, nil
}

func (r *Repository) insertTx(tx *sqlx.Tx, o *Order) error {
	res, err := tx.Exec(`
		INSERT INTO orders (reference, product_id, consumer_id, farmer_id, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.Reference, o.ProductID, o.ConsumerID, o.FarmerID, o.Quantity, string(o.Status), o.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order id: %w", err)
	}
	o.ID = id
	return nil
}

func (r *Repository) getTx(tx *sqlx.Tx, id int64) (*Order, error) {
	var row orderRow
	err := tx.Get(&row, selectOrders+` WHERE o.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %d: %w", id, err)
	}
	o := row.toOrder()
	return &o, nil
}

func (r *Repository) setStatusTx(tx *sqlx.Tx, id int64, status domain.OrderStatus) error {
	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return nil
}

// decrementStockTx removes qty units, failing with ErrInsufficientStock rather than going negative
func (r *Repository) decrementStockTx(tx *sqlx.Tx, productID int64, qty int) error {
	res, err := tx.Exec(`UPDATE products SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`, qty, productID, qty)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %d: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read stock update result: %w", err)
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// GetByID returns one order or ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, selectOrders+` WHERE o.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	o := row.toOrder()
	return &o, nil
}

// ListByFarmer returns orders received by farmerID, newest first
func (r *Repository) ListByFarmer(ctx context.Context, farmerID int64) ([]Order, error) {
	return r.selectMany(ctx, selectOrders+` WHERE o.farmer_id = ? ORDER BY o.created_at DESC, o.id DESC`, farmerID)
}

// ListByConsumer returns orders placed by consumerID, newest first
func (r *Repository) ListByConsumer(ctx context.Context, consumerID int64) ([]Order, error) {
	return r.selectMany(ctx, selectOrders+` WHERE o.consumer_id = ? ORDER BY o.created_at DESC, o.id DESC`, consumerID)
}

// ListAll returns every order, newest first
func (r *Repository) ListAll(ctx context.Context) ([]Order, error) {
	return r.selectMany(ctx, selectOrders+` ORDER BY o.created_at DESC, o.id DESC`)
}

// CountAcceptedByFarmer returns how many of farmerID's orders were accepted
func (r *Repository) CountAcceptedByFarmer(ctx context.Context, farmerID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders WHERE farmer_id = ? AND status = ?`, farmerID, string(domain.OrderAccepted))
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted orders: %w", err)
	}
	return n, nil
}

// AcceptedSales returns quantity and current unit price for every accepted order
func (r *Repository) AcceptedSales(ctx context.Context) ([]SaleLine, error) {
	var lines []SaleLine
	err := r.db.SelectContext(ctx, &lines, `
		SELECT o.quantity, COALESCE(p.price, 0) AS price
		FROM orders o
		LEFT JOIN products p ON p.id = o.product_id
		WHERE o.status = ?`, string(domain.OrderAccepted))
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted sales: %w", err)
	}
	return lines, nil
}

func (r *Repository) selectMany(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]Order, len(rows))
	for i, row := range rows {
		orders[i] = row.toOrder()
	}
	return orders, nil
}
