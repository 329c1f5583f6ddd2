// Package users manages marketplace accounts: registration, login and the admin seed.
package users

import (
	"errors"
	"time"

	"github.com/nexusfarm/nexus/internal/domain"
)

var (
	// ErrDuplicateUser is returned when the username or phone is already registered.
	ErrDuplicateUser = errors.New("username or phone already registered")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidInput wraps validation failures on registration.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a user id does not exist.
	ErrNotFound = errors.New("user not found")
)

// User is a marketplace account
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Phone        string      `json:"phone"`
	PasswordHash string      `json:"-"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

// RegisterRequest is the input to Service.Register
type RegisterRequest struct {
	Username string
	Phone    string
	Password string
	Role     domain.Role
}

// userRow mirrors the users table
type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	Phone        string `db:"phone"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) toUser() User {
	return User{
		ID:           r.ID,
		Username:     r.Username,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
}
