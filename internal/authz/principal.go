package authz

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleMaster Role = "master"
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"

	// RoleService is reserved for trusted internal callers authenticated by
	// the shared service key. It is never assignable to stored users.
	RoleService Role = "service"
)

// AssignableRoles lists roles that may be stored on a user account.
func AssignableRoles() []Role {
	return []Role{RoleMaster, RoleAdmin, RoleUser}
}

// ParseRole validates a raw role value against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleMaster, RoleAdmin, RoleUser, RoleService:
		return Role(raw), nil
	}
	return "", fmt.Errorf("authz: unknown role %q", raw)
}

// Permission is the closed set of capability tags.
type Permission string

const (
	PermAddTodo    Permission = "CAN_ADD_TODO"
	PermEditTodo   Permission = "CAN_EDIT_TODO"
	PermDeleteTodo Permission = "CAN_DELETE_TODO"
	PermViewTodo   Permission = "CAN_VIEW_TODO"
)

// AllPermissions lists every known capability tag.
func AllPermissions() []Permission {
	return []Permission{PermAddTodo, PermEditTodo, PermDeleteTodo, PermViewTodo}
}

// ParsePermission validates a raw permission value.
func ParsePermission(raw string) (Permission, error) {
	switch Permission(raw) {
	case PermAddTodo, PermEditTodo, PermDeleteTodo, PermViewTodo:
		return Permission(raw), nil
	}
	return "", fmt.Errorf("authz: unknown permission %q", raw)
}

// ParsePermissions validates a list of raw permission values, collapsing
// duplicates while preserving first-seen order.
func ParsePermissions(raw []string) ([]Permission, error) {
	seen := make(map[Permission]struct{}, len(raw))
	perms := make([]Permission, 0, len(raw))
	for _, value := range raw {
		perm, err := ParsePermission(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		perms = append(perms, perm)
	}
	return perms, nil
}

// Principal is the authenticated actor derived from a verified credential.
// It is immutable for the lifetime of one request.
type Principal struct {
	ID          string
	Email       string
	Role        Role
	Permissions []Permission
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ServicePrincipal returns the synthesized principal representing a trusted
// internal caller that presented the shared service key.
func ServicePrincipal() *Principal {
	return &Principal{
		ID:   "0",
		Role: RoleService,
	}
}
