package interceptors

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/identity/service"
	"casas-auth/internal/platform/authctx"
	userdomain "casas-auth/internal/user/domain"
)

const (
	publicMethod = "/test.Service/Public"
	anyMethod    = "/test.Service/Any"
	adminMethod  = "/test.Service/Admin"
)

type fakeValidator struct {
	err error
}

func (f fakeValidator) Validate(_ context.Context, token string) (service.Verdict, error) {
	if f.err != nil {
		return service.Verdict{}, f.err
	}
	switch token {
	case "user-token":
		return service.Verdict{Principal: &identitydomain.Principal{ID: "u1", Roles: []userdomain.Role{userdomain.RoleUser}, Active: true}}, nil
	case "admin-token":
		return service.Verdict{Principal: &identitydomain.Principal{ID: "a1", Roles: []userdomain.Role{userdomain.RoleAdmin}, Active: true}}, nil
	case "expired-token":
		return service.Verdict{Reason: identitydomain.ReasonTokenExpired}, nil
	}
	return service.Verdict{Reason: identitydomain.ReasonInvalidToken}, nil
}

var testConfig = AuthConfig{
	Rules: map[string][]userdomain.Role{
		adminMethod: {userdomain.RoleAdmin, userdomain.RoleSuperUser},
	},
	Public: map[string]bool{publicMethod: true},
}

func withToken(token string) context.Context {
	ctx := context.Background()
	if token == "" {
		return ctx
	}
	return metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
}

// principalHandler echoes the principal id attached by the interceptor.
func principalHandler(ctx context.Context, _ interface{}) (interface{}, error) {
	p, ok := authctx.Principal(ctx)
	if !ok {
		return "", nil
	}
	return p.ID, nil
}

func TestAuthUnary(t *testing.T) {
	tests := []struct {
		name     string
		v        TokenValidator
		method   string
		token    string
		wantCode codes.Code
		wantID   string
	}{
		{"public without token", fakeValidator{}, publicMethod, "", codes.OK, ""},
		{"public with valid token attaches principal", fakeValidator{}, publicMethod, "user-token", codes.OK, "u1"},
		{"public with bad token stays anonymous", fakeValidator{}, publicMethod, "junk", codes.OK, ""},
		{"public with store fault stays anonymous", fakeValidator{err: service.ErrStoreUnavailable}, publicMethod, "user-token", codes.OK, ""},
		{"protected without token", fakeValidator{}, anyMethod, "", codes.Unauthenticated, ""},
		{"protected with expired token", fakeValidator{}, anyMethod, "expired-token", codes.Unauthenticated, ""},
		{"protected with valid token", fakeValidator{}, anyMethod, "user-token", codes.OK, "u1"},
		{"protected store fault fails closed", fakeValidator{err: errors.New("db down")}, anyMethod, "user-token", codes.Internal, ""},
		{"role required, user denied", fakeValidator{}, adminMethod, "user-token", codes.PermissionDenied, ""},
		{"role required, admin allowed", fakeValidator{}, adminMethod, "admin-token", codes.OK, "a1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := AuthUnary(tt.v, testConfig, zerolog.New(io.Discard))
			resp, err := interceptor(withToken(tt.token), "req", &grpc.UnaryServerInfo{FullMethod: tt.method}, principalHandler)
			if code := status.Code(err); code != tt.wantCode {
				t.Fatalf("code = %v, want %v (err=%v)", code, tt.wantCode, err)
			}
			if err == nil && resp != tt.wantID {
				t.Errorf("principal = %v, want %q", resp, tt.wantID)
			}
		})
	}
}

func TestAuthUnary_ExpiredMessage(t *testing.T) {
	interceptor := AuthUnary(fakeValidator{}, testConfig, zerolog.New(io.Discard))
	_, err := interceptor(withToken("expired-token"), "req", &grpc.UnaryServerInfo{FullMethod: anyMethod}, principalHandler)
	if st, _ := status.FromError(err); st.Message() != "Token has expired" {
		t.Errorf("message = %q", st.Message())
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestAuthStream(t *testing.T) {
	interceptor := AuthStream(fakeValidator{}, testConfig, zerolog.New(io.Discard))

	var got string
	handler := func(_ interface{}, ss grpc.ServerStream) error {
		if p, ok := authctx.Principal(ss.Context()); ok {
			got = p.ID
		}
		return nil
	}
	err := interceptor(nil, &fakeStream{ctx: withToken("admin-token")}, &grpc.StreamServerInfo{FullMethod: adminMethod}, handler)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got != "a1" {
		t.Errorf("principal = %q, want a1", got)
	}

	err = interceptor(nil, &fakeStream{ctx: withToken("")}, &grpc.StreamServerInfo{FullMethod: anyMethod}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER  abc ", "abc"},
		{"Basic abc", ""},
		{"Bear", ""},
	}
	for _, tt := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", tt.header))
		if got := extractBearer(ctx); got != tt.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("no metadata = %q, want empty", got)
	}
}
