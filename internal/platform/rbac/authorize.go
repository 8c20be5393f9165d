// Package rbac is the authorization gate: a principal passes when it holds any of the required roles.
package rbac

import (
	identitydomain "casas-auth/internal/identity/domain"
	userdomain "casas-auth/internal/user/domain"
)

// Authorize reports whether p may proceed. No required roles allows any caller, including an
// anonymous one; otherwise p must be non-nil and share at least one role with required.
func Authorize(p *identitydomain.Principal, required ...userdomain.Role) bool {
	if len(required) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	for _, want := range required {
		if p.HasRole(want) {
			return true
		}
	}
	return false
}
