package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tasklane/tasklane/internal/authz"
)

func viewer() *authz.Principal {
	return &authz.Principal{
		ID:          "3",
		Role:        authz.RoleUser,
		Permissions: []authz.Permission{authz.PermViewTodo},
	}
}

func TestDecideHide(t *testing.T) {
	req := authz.Requirement{Permissions: []authz.Permission{authz.PermDeleteTodo}}

	d := Decide(viewer(), req, ModeHide)
	assert.False(t, d.Render)
	assert.False(t, d.Disabled)

	d = Decide(&authz.Principal{Role: authz.RoleMaster}, authz.Requirement{Roles: []authz.Role{authz.RoleMaster}}, ModeHide)
	assert.True(t, d.Render)
	assert.False(t, d.Disabled)
}

func TestDecideDisable(t *testing.T) {
	req := authz.Requirement{Permissions: []authz.Permission{authz.PermDeleteTodo}}

	d := Decide(viewer(), req, ModeDisable)
	assert.True(t, d.Render)
	assert.True(t, d.Disabled)
}

func TestDecideNilPrincipal(t *testing.T) {
	req := authz.Requirement{Permissions: []authz.Permission{authz.PermViewTodo}}

	d := Decide(nil, req, ModeHide)
	assert.False(t, d.Render)

	d = Decide(nil, req, ModeDisable)
	assert.True(t, d.Render)
	assert.True(t, d.Disabled)
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(viewer(), authz.Requirement{Permissions: []authz.Permission{authz.PermViewTodo}}))
	assert.False(t, Allowed(viewer(), authz.Requirement{Roles: []authz.Role{authz.RoleMaster}}))
	assert.False(t, Allowed(nil, authz.Requirement{}))
}

func TestShowForAuthentication(t *testing.T) {
	assert.True(t, ShowForAuthentication(viewer(), true))
	assert.False(t, ShowForAuthentication(nil, true))

	// Inverted gates show login/register links only to anonymous visitors.
	assert.False(t, ShowForAuthentication(viewer(), false))
	assert.True(t, ShowForAuthentication(nil, false))
}
