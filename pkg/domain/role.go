package domain

import dErrors "givebridge/pkg/domain-errors"

// Role is the closed set of account roles. Authorization checks are membership
// tests over this enumeration, never free-form string comparison.
type Role string

const (
	RoleSupporter  Role = "supporter"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole validates a role arriving from a request or a stored token.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSupporter, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSupporter, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// In reports whether r is one of the allowed roles. An empty allowed set means
// any valid role passes.
func (r Role) In(allowed ...Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
