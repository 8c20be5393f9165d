package seed

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"casas-auth/internal/security"
	"casas-auth/internal/user/domain"
	userrepo "casas-auth/internal/user/repository"
)

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := userrepo.NewMemoryRepository()
	hasher := security.NewHasher(4)
	log := zerolog.New(io.Discard)
	accounts := DefaultUsers("Seed!pass1")

	n, err := Run(ctx, repo, hasher, accounts, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Fatalf("created = %d, want 2", n)
	}

	n, err = Run(ctx, repo, hasher, accounts, log)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run created = %d, want 0", n)
	}

	super, err := repo.GetByEmail(ctx, "super@casas.dev")
	if err != nil || super == nil {
		t.Fatalf("GetByEmail: %v, %v", super, err)
	}
	if !super.HasRole(domain.RoleSuperUser) || !super.Active {
		t.Errorf("super = %+v", super)
	}
	if !hasher.Verify([]byte("Seed!pass1"), super.PasswordHash) {
		t.Error("seeded password does not verify")
	}
}
