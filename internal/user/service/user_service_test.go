package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	identitydomain "casas-auth/internal/identity/domain"
	userdomain "casas-auth/internal/user/domain"
	"casas-auth/internal/user/policy"
	userrepo "casas-auth/internal/user/repository"
)

func newService(t *testing.T) (*UserService, *userrepo.MemoryRepository) {
	t.Helper()
	ctx := context.Background()
	repo := userrepo.NewMemoryRepository()
	for _, u := range []*userdomain.User{
		{ID: "super", Email: "s@casas.test", Roles: []userdomain.Role{userdomain.RoleUser, userdomain.RoleSuperUser}, Active: true},
		{ID: "admin", Email: "a@casas.test", Roles: []userdomain.Role{userdomain.RoleUser, userdomain.RoleAdmin}, Active: true},
		{ID: "plain", Email: "p@casas.test", Roles: []userdomain.Role{userdomain.RoleUser}, Active: true},
	} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	e, err := policy.NewEvaluator(ctx)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return NewUserService(repo, e, zerolog.New(io.Discard), nil), repo
}

func actor(t *testing.T, repo *userrepo.MemoryRepository, id string) *identitydomain.Principal {
	t.Helper()
	u, _ := repo.GetByID(context.Background(), id)
	return identitydomain.PrincipalFromUser(u)
}

func TestUpdateRoles(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	u, err := svc.UpdateRoles(ctx, actor(t, repo, "super"), "plain", []userdomain.Role{userdomain.RoleUser, userdomain.RoleAdmin, userdomain.RoleAdmin})
	if err != nil {
		t.Fatalf("UpdateRoles: %v", err)
	}
	if len(u.Roles) != 2 || !u.HasRole(userdomain.RoleAdmin) {
		t.Errorf("Roles = %v, want [user admin]", u.Roles)
	}

	_, err = svc.UpdateRoles(ctx, actor(t, repo, "admin"), "plain", []userdomain.Role{userdomain.RoleUser})
	var denied *DeniedError
	if !errors.As(err, &denied) || !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin UpdateRoles err = %v, want DeniedError", err)
	}
	if len(denied.Reasons) == 0 {
		t.Error("denial should carry reasons")
	}

	if _, err := svc.UpdateRoles(ctx, actor(t, repo, "super"), "plain", []userdomain.Role{"root"}); !errors.Is(err, ErrInvalidRoles) {
		t.Errorf("unknown role err = %v, want ErrInvalidRoles", err)
	}
	if _, err := svc.UpdateRoles(ctx, actor(t, repo, "super"), "plain", nil); !errors.Is(err, ErrInvalidRoles) {
		t.Errorf("empty roles err = %v, want ErrInvalidRoles", err)
	}
	if _, err := svc.UpdateRoles(ctx, actor(t, repo, "super"), "ghost", []userdomain.Role{userdomain.RoleUser}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing target err = %v, want ErrUserNotFound", err)
	}
}

func TestDeactivate(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	if _, err := svc.Deactivate(ctx, actor(t, repo, "admin"), "plain"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin Deactivate err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Deactivate(ctx, actor(t, repo, "super"), "super"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("superUser self-deactivate err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Deactivate(ctx, nil, "plain"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous Deactivate err = %v, want ErrForbidden", err)
	}

	u, err := svc.Deactivate(ctx, actor(t, repo, "plain"), "plain")
	if err != nil {
		t.Fatalf("self Deactivate: %v", err)
	}
	if u.Active {
		t.Error("user should be inactive")
	}
	stored, _ := repo.GetByID(ctx, "plain")
	if stored.Active {
		t.Error("deactivation not persisted")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	str := func(s string) *string { return &s }

	u, err := svc.UpdateProfile(ctx, actor(t, repo, "plain"), "plain", userdomain.ProfileUpdate{FirstName: str("  Ana "), Address: str(" Calle 1 ")})
	if err != nil {
		t.Fatalf("self UpdateProfile: %v", err)
	}
	if u.FirstName != "Ana" || u.Address != "Calle 1" {
		t.Errorf("profile = %q / %q, want trimmed values", u.FirstName, u.Address)
	}

	if _, err := svc.UpdateProfile(ctx, actor(t, repo, "admin"), "plain", userdomain.ProfileUpdate{LastName: str("Paz")}); err != nil {
		t.Errorf("admin UpdateProfile: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, actor(t, repo, "plain"), "admin", userdomain.ProfileUpdate{LastName: str("Paz")}); !errors.Is(err, ErrForbidden) {
		t.Errorf("plain on other err = %v, want ErrForbidden", err)
	}

	testCases := []struct {
		name string
		p    userdomain.ProfileUpdate
	}{
		{"empty", userdomain.ProfileUpdate{}},
		{"blank first name", userdomain.ProfileUpdate{FirstName: str("   ")}},
		{"long last name", userdomain.ProfileUpdate{LastName: str(strings.Repeat("ñ", maxNameLen+1))}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateProfile(ctx, actor(t, repo, "plain"), "plain", tc.p); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("err = %v, want ErrInvalidProfile", err)
			}
		})
	}

	if _, err := svc.UpdateProfile(ctx, actor(t, repo, "super"), "ghost", userdomain.ProfileUpdate{LastName: str("Paz")}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing target err = %v, want ErrUserNotFound", err)
	}
}
