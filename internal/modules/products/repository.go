package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

const selectProducts = `
	SELECT p.id, p.name, p.price, p.quantity, p.category, p.location, p.image,
	       p.farmer_id, u.username AS farmer_name, p.created_at
	FROM products p
	LEFT JOIN users u ON u.id = p.farmer_id`

// Repository handles product database operations
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a new product repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "products").Logger(),
	}
}

// Create inserts p and sets its ID and CreatedAt
func (r *Repository) Create(ctx context.Context, p *Product) error {
	now := time.Now().UTC().Unix()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (name, price, quantity, category, location, image, farmer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Price, p.Quantity, p.Category, p.Location, p.Image, p.FarmerID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read product id: %w", err)
	}
	p.ID = id
	p.CreatedAt = time.Unix(now, 0).UTC()
	return nil
}

// GetByID returns the product or ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var row productRow
	if err := r.db.GetContext(ctx, &row, selectProducts+` WHERE p.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	p := row.toProduct()
	return &p, nil
}

// List returns all products, newest first
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	return r.selectMany(ctx, selectProducts+` ORDER BY p.id DESC`)
}

// Search matches q case-insensitively against name, category and location
func (r *Repository) Search(ctx context.Context, q string) ([]Product, error) {
	pattern := utils.LikePattern(q)
	return r.selectMany(ctx, selectProducts+`
		WHERE p.name LIKE ? ESCAPE '\' OR p.category LIKE ? ESCAPE '\' OR p.location LIKE ? ESCAPE '\'
		ORDER BY p.id DESC`, pattern, pattern, pattern)
}

// ListByFarmer returns the listings of one farmer, newest first
func (r *Repository) ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error) {
	return r.selectMany(ctx, selectProducts+` WHERE p.farmer_id = ? ORDER BY p.id DESC`, farmerID)
}

// TotalInventory returns the summed quantity of all listings
func (r *Repository) TotalInventory(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(quantity), 0) FROM products`); err != nil {
		return 0, fmt.Errorf("failed to sum inventory: %w", err)
	}
	return total, nil
}

func (r *Repository) selectMany(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, len(rows))
	for i, row := range rows {
		products[i] = row.toProduct()
	}
	return products, nil
}
