package auth

import (
	"errors"
	"time"

	"github.com/tasklane/tasklane/internal/authz"
)

var (
	// ErrInvalidCredentials indicates login failure. Deliberately vague so
	// responses do not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken indicates a registration conflict.
	ErrEmailTaken = errors.New("auth: email is already registered")
)

// User is an account as the auth module sees it.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         authz.Role
	Permissions  []authz.Permission
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session records metadata about an issued credential. The id is the
// credential's jti, so logout can correlate the row with the revoked token.
type Session struct {
	ID        string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
