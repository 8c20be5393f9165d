package domain

import (
	userdomain "casas-auth/internal/user/domain"
)

// Principal is the authenticated identity resolved from a validated token.
type Principal struct {
	ID     string
	Roles  []userdomain.Role
	Active bool
	// User is the full record the principal was resolved from; nil when built by hand.
	User *userdomain.User
}

// PrincipalFromUser builds a Principal from a user record. Returns nil for a nil user.
func PrincipalFromUser(u *userdomain.User) *Principal {
	if u == nil {
		return nil
	}
	roles := make([]userdomain.Role, len(u.Roles))
	copy(roles, u.Roles)
	return &Principal{ID: u.ID, Roles: roles, Active: u.Active, User: u}
}

// HasRole reports whether the principal carries role r.
func (p *Principal) HasRole(r userdomain.Role) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}
