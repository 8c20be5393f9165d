package interceptors

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingUnary(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingUnary(zerolog.New(&buf), map[string]bool{"/grpc.health.v1.Health/Check": true})

	fail := func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.PermissionDenied, "no")
	}
	if _, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/test.Service/Any"}, fail); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("error not passed through: %v", err)
	}
	if !strings.Contains(buf.String(), `"code":"PermissionDenied"`) || !strings.Contains(buf.String(), `"method":"/test.Service/Any"`) {
		t.Errorf("log line = %s", buf.String())
	}

	buf.Reset()
	ok := func(context.Context, interface{}) (interface{}, error) { return "ok", nil }
	if _, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("skipped method was logged: %s", buf.String())
	}
}
