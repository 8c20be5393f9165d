package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is a flat role tag carried by a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperUser Role = "superUser"
)

// Valid reports whether r is one of the known role tags.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperUser:
		return true
	}
	return false
}

// User is the user-management record the auth core reads from.
type User struct {
	ID        string
	CI        string
	FirstName string
	LastName  string
	Email     string
	Address   string
	// PasswordHash is the bcrypt hash; only populated by lookups that serve login.
	PasswordHash string
	Roles        []Role
	Active       bool
	CreatedAt    time.Time
}

// HasRole reports whether the user carries role r.
func (u *User) HasRole(r Role) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if len(u.Roles) == 0 {
		u.Roles = []Role{RoleUser}
	}
	for _, r := range u.Roles {
		if !r.Valid() {
			return errors.New("unknown role " + string(r))
		}
	}
	return nil
}

// ProfileUpdate holds the editable profile fields. A nil field is left unchanged; an empty
// Address clears it.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Address   *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Address == nil
}

// Apply writes the set fields to u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}
