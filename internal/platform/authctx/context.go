// Package authctx carries the authenticated principal and its bearer token through a request context.
package authctx

import (
	"context"
	"errors"

	identitydomain "casas-auth/internal/identity/domain"
)

type contextKey struct{ name string }

var (
	principalKey = contextKey{"principal"}
	tokenKey     = contextKey{"token"}
)

// ErrNoPrincipal is returned when no principal is attached to the context.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// WithPrincipal returns a context carrying p and the token it was resolved from.
func WithPrincipal(ctx context.Context, p *identitydomain.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, tokenKey, token)
}

// Principal returns the principal from ctx and true if set; otherwise nil, false.
func Principal(ctx context.Context) (*identitydomain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*identitydomain.Principal)
	return p, ok && p != nil
}

// PrincipalOrError is Principal returning ErrNoPrincipal when absent.
func PrincipalOrError(ctx context.Context) (*identitydomain.Principal, error) {
	p, ok := Principal(ctx)
	if !ok {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

// Token returns the bearer token the principal was resolved from.
func Token(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok && v != ""
}
