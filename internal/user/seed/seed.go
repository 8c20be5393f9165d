// Package seed creates the development users. Seeding is idempotent on email.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"casas-auth/internal/security"
	"casas-auth/internal/user/domain"
)

// Account describes one user to seed.
type Account struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	CI        string
	Roles     []domain.Role
}

// Store is the subset of the user repository used for seeding.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// DefaultUsers is a superUser and a regular user.
func DefaultUsers(password string) []Account {
	return []Account{
		{
			Email: "super@casas.dev", Password: password, FirstName: "Super", LastName: "User",
			CI: "00000000001", Roles: []domain.Role{domain.RoleUser, domain.RoleSuperUser},
		},
		{
			Email: "user@casas.dev", Password: password, FirstName: "Regular", LastName: "User",
			CI: "00000000002", Roles: []domain.Role{domain.RoleUser},
		},
	}
}

// Run creates every account whose email is not taken yet and returns how many were created.
func Run(ctx context.Context, store Store, hasher *security.Hasher, accounts []Account, log zerolog.Logger) (int, error) {
	created := 0
	for _, s := range accounts {
		email := domain.NormalizeEmail(s.Email)
		existing, err := store.GetByEmail(ctx, email)
		if err != nil {
			return created, fmt.Errorf("lookup %s: %w", email, err)
		}
		if existing != nil {
			log.Info().Str("email", email).Msg("user exists, skipping")
			continue
		}
		hash, err := hasher.Hash([]byte(s.Password))
		if err != nil {
			return created, fmt.Errorf("hash password for %s: %w", email, err)
		}
		u := &domain.User{
			ID:           uuid.NewString(),
			CI:           s.CI,
			FirstName:    s.FirstName,
			LastName:     s.LastName,
			Email:        email,
			PasswordHash: hash,
			Roles:        s.Roles,
			Active:       true,
		}
		if err := store.Create(ctx, u); err != nil {
			return created, fmt.Errorf("create %s: %w", email, err)
		}
		log.Info().Str("email", email).Str("id", u.ID).Msg("user created")
		created++
	}
	return created, nil
}
