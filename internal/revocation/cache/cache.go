// Package cache fronts the revocation repository with a Redis set of known-revoked tokens.
// Only positive answers are cached; a miss always falls through to the repository.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"casas-auth/internal/revocation/domain"
	"casas-auth/internal/security"
)

const (
	keyPrefix   = "revoked:"
	backfillTTL = time.Minute
)

// Exister is the authoritative revocation lookup.
type Exister interface {
	Exists(ctx context.Context, token string) (bool, error)
}

// CachedChecker answers Exists from Redis when possible. Redis failures degrade to the repository.
type CachedChecker struct {
	redis *redis.Client
	repo  Exister
	log   zerolog.Logger
	now   func() time.Time
}

// NewCachedChecker returns a checker caching positive lookups of repo in client.
func NewCachedChecker(client *redis.Client, repo Exister, log zerolog.Logger) *CachedChecker {
	return &CachedChecker{redis: client, repo: repo, log: log, now: time.Now}
}

func key(token string) string {
	return keyPrefix + security.TokenFingerprint(token)
}

// Exists reports whether token is revoked.
func (c *CachedChecker) Exists(ctx context.Context, token string) (bool, error) {
	n, err := c.redis.Exists(ctx, key(token)).Result()
	switch {
	case err == nil && n > 0:
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("revocation cache read failed; using store")
	}
	revoked, err := c.repo.Exists(ctx, token)
	if err != nil || !revoked {
		return revoked, err
	}
	// Expiry is unknown on this path.
	if err := c.redis.Set(ctx, key(token), "1", backfillTTL).Err(); err != nil {
		c.log.Warn().Err(err).Msg("revocation cache write failed")
	}
	return true, nil
}

// Remember caches e until its token's natural expiry. Already-expired entries are skipped.
// Best-effort: failures are logged.
func (c *CachedChecker) Remember(ctx context.Context, e *domain.Entry) {
	ttl := e.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	if err := c.redis.Set(ctx, key(e.Token), e.OwnerID, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("revocation cache write failed")
	}
}
