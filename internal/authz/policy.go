package authz

// Requirement is the declared role/permission constraint attached to a
// protected operation. It is pure configuration; evaluation never mutates it.
type Requirement struct {
	Roles       []Role
	Permissions []Permission

	// RolesAllowIf and PermissionsAllowIf default to HasAny when unset.
	RolesAllowIf       CombinationMode
	PermissionsAllowIf CombinationMode
}

// Reason explains a verdict for diagnostics.
type Reason string

const (
	// ReasonNone accompanies an authorized verdict.
	ReasonNone Reason = ""
	// ReasonNoPrincipal means no authenticated actor was available.
	ReasonNoPrincipal Reason = "no_principal"
	// ReasonPolicyDenied means the actor failed the declared constraint.
	ReasonPolicyDenied Reason = "policy_denied"
)

// Verdict is the binary authorization outcome.
type Verdict struct {
	Authorized bool
	Reason     Reason
}

// Authorize evaluates a principal against a requirement.
//
// When both role and permission constraints are declared the verdict is the
// union of the two checks: holding either is enough. Declaring both widens
// access rather than narrowing it.
func Authorize(p *Principal, req Requirement) Verdict {
	if p == nil {
		return Verdict{Authorized: false, Reason: ReasonNoPrincipal}
	}

	rolesMode := req.RolesAllowIf
	if rolesMode == "" {
		rolesMode = HasAny
	}
	permsMode := req.PermissionsAllowIf
	if permsMode == "" {
		permsMode = HasAny
	}

	hasRole := true
	if len(req.Roles) > 0 {
		hasRole = Evaluate([]Role{p.Role}, req.Roles, rolesMode)
	}

	hasPermission := true
	if len(req.Permissions) > 0 {
		hasPermission = Evaluate(p.Permissions, req.Permissions, permsMode)
	}

	var authorized bool
	switch {
	case len(req.Roles) > 0 && len(req.Permissions) > 0:
		authorized = hasRole || hasPermission
	case len(req.Roles) > 0:
		authorized = hasRole
	case len(req.Permissions) > 0:
		authorized = hasPermission
	default:
		authorized = true
	}

	if !authorized {
		return Verdict{Authorized: false, Reason: ReasonPolicyDenied}
	}
	return Verdict{Authorized: true, Reason: ReasonNone}
}
