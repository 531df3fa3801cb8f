package users

import (
	"errors"
	"time"

	"github.com/tasklane/tasklane/internal/authz"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates an email conflict on create or update.
	ErrEmailTaken = errors.New("users: email is already registered")
	// ErrInvalidGrant indicates a role or permission outside the closed set.
	ErrInvalidGrant = errors.New("users: invalid grant")
)

// User represents a user account for management.
type User struct {
	ID          int64
	Email       string
	Role        authz.Role
	Permissions []authz.Permission
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
