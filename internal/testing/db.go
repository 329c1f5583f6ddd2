// Package testing provides testing utilities and helpers for the nexus project.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nexusfarm/nexus/internal/database"
)

// NewTestDB creates a temporary-file SQLite database with the marketplace schema applied.
// The database is closed and removed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nexus_test.db")

	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileStandard,
		Name:    "nexus_test",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		_ = os.Remove(path)
	})

	return db
}
