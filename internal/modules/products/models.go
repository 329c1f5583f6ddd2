// Package products manages the produce catalogue listed by farmers.
package products

import (
	"errors"
	"time"
)

// Defaults applied when a listing leaves the field empty
const (
	DefaultLocation = "Not specified"
	DefaultImage    = "default.jpg"
)

var (
	// ErrNotFound is returned when a product id does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidInput wraps listing validation failures.
	ErrInvalidInput = errors.New("invalid product")
	// ErrUnsupportedImage is returned for uploads that are not png, jpg, jpeg or gif.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Product is a listing owned by a farmer
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	Category   string    `json:"category"`
	Location   string    `json:"location"`
	Image      string    `json:"image"`
	FarmerID   int64     `json:"farmer_id"`
	FarmerName string    `json:"farmer_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the input to Service.Create
type CreateRequest struct {
	Name     string
	Price    float64
	Quantity int
	Category string
	Location string
}

type productRow struct {
	ID         int64   `db:"id"`
	Name       string  `db:"name"`
	Price      float64 `db:"price"`
	Quantity   int     `db:"quantity"`
	Category   string  `db:"category"`
	Location   string  `db:"location"`
	Image      string  `db:"image"`
	FarmerID   int64   `db:"farmer_id"`
	FarmerName *string `db:"farmer_name"`
	CreatedAt  int64   `db:"created_at"`
}

func (r productRow) toProduct() Product {
	p := Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Quantity:  r.Quantity,
		Category:  r.Category,
		Location:  r.Location,
		Image:     r.Image,
		FarmerID:  r.FarmerID,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.FarmerName != nil {
		p.FarmerName = *r.FarmerName
	}
	return p
}
