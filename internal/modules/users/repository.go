package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const userColumns = `id, username, phone, password_hash, role, created_at`

// Repository handles user database operations
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "users").Logger(),
	}
}

// Create inserts u and sets its ID and CreatedAt. Unique violations map to ErrDuplicateUser.
func (r *Repository) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, phone, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Phone, u.PasswordHash, string(u.Role), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = time.Unix(now.Unix(), 0).UTC()
	return nil
}

// GetByID returns the user or ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername returns the user or ErrNotFound
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// Exists reports whether username or phone is taken
func (r *Repository) Exists(ctx context.Context, username, phone string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ? OR phone = ?`, username, phone)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

// List returns all users ordered by id
func (r *Repository) List(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users, nil
}

// CountByRole returns the number of users per role
func (r *Repository) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS n FROM users GROUP BY role`); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.toUser()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
