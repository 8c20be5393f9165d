package repository

import (
	"context"

	"casas-auth/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns the user including PasswordHash; email is matched as normalized.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateRoles replaces the user's role set and returns the updated user.
	UpdateRoles(ctx context.Context, id string, roles []domain.Role) (*domain.User, error)
	// UpdateProfile applies p and returns the updated user.
	UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (*domain.User, error)
	// SetActive sets the active flag and returns the updated user.
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
}
