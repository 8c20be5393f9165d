package interceptors

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/identity/service"
	"casas-auth/internal/platform/authctx"
	"casas-auth/internal/platform/rbac"
	userdomain "casas-auth/internal/user/domain"
)

const bearerPrefix = "bearer "

// TokenValidator resolves a bearer token to a verdict. *service.AuthService satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (service.Verdict, error)
}

// AuthConfig describes which methods need which roles.
type AuthConfig struct {
	// Rules maps a full method name to the roles it requires; an empty list means any principal.
	Rules map[string][]userdomain.Role
	// Public is the set of full method names that run without a token. A valid token is still attached.
	Public map[string]bool
}

// AuthUnary returns a unary server interceptor that validates the Bearer token from gRPC metadata,
// attaches the principal to the context and enforces per-method roles.
// Rejections map to Unauthenticated, role failures to PermissionDenied and store faults to Internal.
func AuthUnary(v TokenValidator, cfg AuthConfig, log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := authenticate(ctx, v, cfg, info.FullMethod, log)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStream is AuthUnary for streaming RPCs.
func AuthStream(v TokenValidator, cfg AuthConfig, log zerolog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), v, cfg, info.FullMethod, log)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func authenticate(ctx context.Context, v TokenValidator, cfg AuthConfig, method string, log zerolog.Logger) (context.Context, error) {
	token := extractBearer(ctx)
	public := cfg.Public[method]

	if token == "" {
		if public {
			return ctx, nil
		}
		return ctx, status.Error(codes.Unauthenticated, identitydomain.ReasonNoToken.Message())
	}

	verdict, err := v.Validate(ctx, token)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("token validation failed")
		if public {
			return ctx, nil
		}
		return ctx, status.Error(codes.Internal, "unexpected error, please check server logs")
	}
	if !verdict.Accepted() {
		if public {
			return ctx, nil
		}
		return ctx, status.Error(codes.Unauthenticated, verdict.Reason.Message())
	}

	ctx = authctx.WithPrincipal(ctx, verdict.Principal, token)
	if public {
		return ctx, nil
	}
	if _, err := rbac.RequireRoles(ctx, cfg.Rules[method]...); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
