package testing

import (
	"testing"
	"time"

	"github.com/nexusfarm/nexus/internal/database"
)

// InsertUser inserts a user row directly and returns its id. The password hash is a
// placeholder; tests that log in must go through the users service instead.
func InsertUser(t *testing.T, db *database.DB, username, phone, role string) int64 {
	t.Helper()

	res, err := db.Conn().Exec(
		`INSERT INTO users (username, phone, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		username, phone, "x", role, time.Now().Unix(),
	)
	if err != nil {
		t.Fatalf("Failed to insert user %s: %v", username, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// InsertProduct inserts a product row owned by farmerID and returns its id.
func InsertProduct(t *testing.T, db *database.DB, farmerID int64, name string, price float64, qty int) int64 {
	t.Helper()

	res, err := db.Conn().Exec(
		`INSERT INTO products (name, price, quantity, category, location, image, farmer_id, created_at)
		 VALUES (?, ?, ?, 'Vegetables', 'Nadia', 'default.jpg', ?, ?)`,
		name, price, qty, farmerID, time.Now().Unix(),
	)
	if err != nil {
		t.Fatalf("Failed to insert product %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}
