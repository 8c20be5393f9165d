package domain

import "testing"

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []Role{RoleUser, RoleAdmin}}
	if !u.HasRole(RoleAdmin) {
		t.Error("expected admin role")
	}
	if u.HasRole(RoleSuperUser) {
		t.Error("unexpected superUser role")
	}
	var nilUser *User
	if nilUser.HasRole(RoleUser) {
		t.Error("nil user has no roles")
	}
}

func TestUser_Validate(t *testing.T) {
	u := &User{Email: "a@b.cu"}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(u.Roles) != 1 || u.Roles[0] != RoleUser {
		t.Errorf("default roles = %v, want [user]", u.Roles)
	}
	if err := (&User{}).Validate(); err == nil {
		t.Error("missing email should fail")
	}
	if err := (&User{Email: "a@b.cu", Roles: []Role{"root"}}).Validate(); err == nil {
		t.Error("unknown role should fail")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Casas.CU "); got != "ana@casas.cu" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
