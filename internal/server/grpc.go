package server

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"casas-auth/internal/server/interceptors"
	userdomain "casas-auth/internal/user/domain"
)

// Deps holds the dependencies of the gRPC server.
type Deps struct {
	// Validator resolves bearer tokens for the auth interceptors. Required.
	Validator interceptors.TokenValidator
	// Health is the gRPC health service; kept in sync with the HTTP health checker by the caller.
	Health *health.Server
	// Auth overrides DefaultAuthConfig when non-nil.
	Auth *interceptors.AuthConfig
	Log  zerolog.Logger
}

// DefaultAuthConfig leaves the health probes public and requires admin or superUser for
// health listing, which reveals the registered services.
func DefaultAuthConfig() interceptors.AuthConfig {
	return interceptors.AuthConfig{
		Public: map[string]bool{
			healthpb.Health_Check_FullMethodName: true,
			healthpb.Health_Watch_FullMethodName: true,
		},
		Rules: map[string][]userdomain.Role{
			healthpb.Health_List_FullMethodName: {userdomain.RoleAdmin, userdomain.RoleSuperUser},
		},
	}
}

// NewGRPCServer returns a gRPC server with tracing, request logging and bearer auth installed,
// and every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	authCfg := DefaultAuthConfig()
	if deps.Auth != nil {
		authCfg = *deps.Auth
	}
	log := deps.Log.With().Str("component", "grpc").Logger()
	skipLog := map[string]bool{healthpb.Health_Check_FullMethodName: true}

	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(log, skipLog),
			interceptors.AuthUnary(deps.Validator, authCfg, log),
		),
		grpc.ChainStreamInterceptor(interceptors.AuthStream(deps.Validator, authCfg, log)),
	}
	s := grpc.NewServer(append(base, opts...)...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers every gRPC service with s. A nil Health gets a fresh health server.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	hs := deps.Health
	if hs == nil {
		hs = health.NewServer()
	}
	healthpb.RegisterHealthServer(s, hs)
}
