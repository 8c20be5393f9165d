package repository

import (
	"context"
	"time"

	"casas-auth/internal/revocation/domain"
)

// Repository defines persistence for revoked tokens.
type Repository interface {
	// Exists reports whether token has a revocation entry.
	Exists(ctx context.Context, token string) (bool, error)
	// Insert adds e. inserted is false when an entry for e.Token already existed; that is not an error.
	Insert(ctx context.Context, e *domain.Entry) (inserted bool, err error)
	// DeleteExpired removes entries whose token expired strictly before before. Returns the count removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
