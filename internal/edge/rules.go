package edge

import "github.com/tasklane/tasklane/internal/authz"

// Routing surfaces of the frontend the proxy fronts.
const (
	LoginPath        = "/auth/login"
	AuthPrefix       = "/auth"
	HomePath         = "/todos"
	UnauthorizedPath = "/unauthorized/403"
)

// Rule binds a path prefix to a policy requirement. Rules are evaluated in
// order; the first matching prefix wins.
type Rule struct {
	Prefix      string
	Requirement authz.Requirement
}

// DefaultPublicPaths lists exact paths reachable without a credential.
func DefaultPublicPaths() []string {
	return []string{"/", "/documents", "/auth/login", "/auth/register"}
}

// DefaultRules declares the per-section access policy: /todos is open to
// masters or anyone who can view todos, /users to masters only.
func DefaultRules() []Rule {
	return []Rule{
		{
			Prefix: "/todos",
			Requirement: authz.Requirement{
				Roles:       []authz.Role{authz.RoleMaster},
				Permissions: []authz.Permission{authz.PermViewTodo},
			},
		},
		{
			Prefix: "/users",
			Requirement: authz.Requirement{
				Roles: []authz.Role{authz.RoleMaster},
			},
		},
	}
}
