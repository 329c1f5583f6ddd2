// Package orders implements order placement and the farmer accept/reject workflow.
package orders

import (
	"errors"
	"time"

	"github.com/nexusfarm/nexus/internal/domain"
)

// Actions a farmer can take on a pending order
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

var (
	// ErrNotFound is returned when an order id does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when ordering a product that does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when the product has fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotOwner is returned when a farmer manages another farmer's order.
	ErrNotOwner = errors.New("order belongs to another farmer")
	// ErrNotPending is returned when the order was already accepted or rejected.
	ErrNotPending = errors.New("order is no longer pending")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidAction is returned for actions other than accept and reject.
	ErrInvalidAction = errors.New("action must be accept or reject")
)

// Order is a consumer's request for a quantity of one product
type Order struct {
	ID           int64              `json:"id"`
	Reference    string             `json:"reference"`
	ProductID    int64              `json:"product_id"`
	ProductName  string             `json:"product_name"`
	ProductPrice float64            `json:"product_price"`
	ConsumerID   int64              `json:"consumer_id"`
	ConsumerName string             `json:"consumer_name"`
	FarmerID     int64              `json:"farmer_id"`
	FarmerName   string             `json:"farmer_name"`
	Quantity     int                `json:"quantity"`
	Status       domain.OrderStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
}

// SaleLine is one accepted order reduced to what revenue totals need
type SaleLine struct {
	Quantity int     `db:"quantity"`
	Price    float64 `db:"price"`
}

type orderRow struct {
	ID           int64    `db:"id"`
	Reference    string   `db:"reference"`
	ProductID    int64    `db:"product_id"`
	ProductName  *string  `db:"product_name"`
	ProductPrice *float64 `db:"product_price"`
	ConsumerID   int64    `db:"consumer_id"`
	ConsumerName *string  `db:"consumer_name"`
	FarmerID     int64    `db:"farmer_id"`
	FarmerName   *string  `db:"farmer_name"`
	Quantity     int      `db:"quantity"`
	Status       string   `db:"status"`
	CreatedAt    int64    `db:"created_at"`
}

func (r orderRow) toOrder() Order {
	return Order{
		ID:           r.ID,
		Reference:    r.Reference,
		ProductID:    r.ProductID,
		ProductName:  deref(r.ProductName),
		ProductPrice: derefFloat(r.ProductPrice),
		ConsumerID:   r.ConsumerID,
		ConsumerName: deref(r.ConsumerName),
		FarmerID:     r.FarmerID,
		FarmerName:   deref(r.FarmerName),
		Quantity:     r.Quantity,
		Status:       domain.OrderStatus(r.Status),
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
