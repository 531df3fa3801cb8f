package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tasklane/tasklane/internal/authz"
)

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput carries validated data for a new account.
type CreateInput struct {
	Email       string
	Password    string
	Role        string
	Permissions []string
	IsActive    bool
}

// UpdateInput carries validated data for an account update. An empty
// Password leaves the stored hash untouched.
type UpdateInput struct {
	Email       string
	Password    string
	Role        string
	Permissions []string
	IsActive    bool
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a single user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser validates grants, hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*User, error) {
	role, perms, err := parseGrants(in.Role, in.Permissions)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, User{
		Email:       in.Email,
		Role:        role,
		Permissions: perms,
		IsActive:    in.IsActive,
	}, string(hash))
}

// UpdateUser validates grants and updates the account.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	role, perms, err := parseGrants(in.Role, in.Permissions)
	if err != nil {
		return nil, err
	}
	var hash string
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(hashed)
	}
	return s.repo.UpdateUser(ctx, User{
		ID:          id,
		Email:       in.Email,
		Role:        role,
		Permissions: perms,
		IsActive:    in.IsActive,
	}, hash)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

func parseGrants(rawRole string, rawPerms []string) (authz.Role, []authz.Permission, error) {
	role, err := authz.ParseRole(rawRole)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	if role == authz.RoleService {
		return "", nil, fmt.Errorf("%w: role %q is reserved for internal callers", ErrInvalidGrant, rawRole)
	}
	perms, err := authz.ParsePermissions(rawPerms)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	return role, perms, nil
}
