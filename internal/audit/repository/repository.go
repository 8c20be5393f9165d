package repository

import (
	"context"

	"casas-auth/internal/audit/domain"
)

// Repository defines persistence for logout events. Events are append-only.
type Repository interface {
	Create(ctx context.Context, e *domain.LogoutEvent) error
}
