package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"casas-auth/internal/logger"
	"casas-auth/internal/server/middleware"
)

// NewHTTPRouter returns a gin engine with the request middleware installed. Forwarding headers
// such as X-Forwarded-For are honoured only from trustedProxies; with none, the client IP is the
// peer address.
func NewHTTPRouter(trustedProxies []string, log zerolog.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.RequestLogger(logger.Component(log, "http")))
	return r, nil
}
