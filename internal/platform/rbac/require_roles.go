package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/platform/authctx"
	userdomain "casas-auth/internal/user/domain"
)

// RequireRoles ensures the caller in ctx is authenticated and holds one of roles.
// Returns the principal on success; returns a gRPC error (Unauthenticated or PermissionDenied) on failure.
func RequireRoles(ctx context.Context, roles ...userdomain.Role) (*identitydomain.Principal, error) {
	p, ok := authctx.Principal(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if !Authorize(p, roles...) {
		return nil, status.Error(codes.PermissionDenied, "insufficient role")
	}
	return p, nil
}
