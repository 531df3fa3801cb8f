// Package gate translates authorization verdicts into presentation
// decisions for UI elements.
//
// Gate decisions are presentation-only. They hide or disable what a user
// cannot use; the server and edge middleware remain the security boundary.
package gate

import "github.com/tasklane/tasklane/internal/authz"

// FallbackMode controls what a denied gate renders.
type FallbackMode string

const (
	// ModeHide renders nothing on deny.
	ModeHide FallbackMode = "hide"
	// ModeDisable renders a disabled variant on deny.
	ModeDisable FallbackMode = "disable"
)

// Decision is the render outcome for a guarded element.
type Decision struct {
	Render   bool `json:"render"`
	Disabled bool `json:"disabled"`
}

// Decide evaluates the requirement for the principal and maps the verdict
// onto the fallback mode. The principal is never mutated.
func Decide(p *authz.Principal, req authz.Requirement, mode FallbackMode) Decision {
	if authz.Authorize(p, req).Authorized {
		return Decision{Render: true}
	}
	if mode == ModeDisable {
		return Decision{Render: true, Disabled: true}
	}
	return Decision{}
}

// Allowed is a shorthand for callers that only need the boolean.
func Allowed(p *authz.Principal, req authz.Requirement) bool {
	return authz.Authorize(p, req).Authorized
}

// ShowForAuthentication implements the authentication-only gate: when
// requireAuth is true the element shows for signed-in users, otherwise it
// shows for anonymous ones (login/register links).
func ShowForAuthentication(p *authz.Principal, requireAuth bool) bool {
	authenticated := p != nil
	if requireAuth {
		return authenticated
	}
	return !authenticated
}
