package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/identity/service"
	"casas-auth/internal/platform/authctx"
	"casas-auth/internal/platform/rbac"
	userdomain "casas-auth/internal/user/domain"
)

// TokenValidator resolves a bearer token to a verdict. *service.AuthService satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (service.Verdict, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Returns "" when the header is missing or uses another scheme.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate rejects requests without an accepted bearer token and attaches the principal
// to the request context.
func Authenticate(v TokenValidator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			Abort(c, http.StatusUnauthorized, identitydomain.ReasonNoToken.Message())
			return
		}
		verdict, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			log.Error().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
			Abort(c, http.StatusInternalServerError, MessageServerError)
			return
		}
		if !verdict.Accepted() {
			Abort(c, http.StatusUnauthorized, verdict.Reason.Message())
			return
		}
		c.Request = c.Request.WithContext(authctx.WithPrincipal(c.Request.Context(), verdict.Principal, token))
		c.Next()
	}
}

// OptionalAuthenticate attaches the principal when the request carries an accepted token and
// otherwise lets the request through anonymously.
func OptionalAuthenticate(v TokenValidator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		verdict, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("optional auth: validation failed, continuing anonymously")
			c.Next()
			return
		}
		if verdict.Accepted() {
			c.Request = c.Request.WithContext(authctx.WithPrincipal(c.Request.Context(), verdict.Principal, token))
		}
		c.Next()
	}
}

// RequireRoles must run after Authenticate. It aborts with 403 unless the principal holds one
// of roles; no roles means any authenticated principal.
func RequireRoles(roles ...userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := authctx.Principal(c.Request.Context())
		if !ok {
			Abort(c, http.StatusUnauthorized, identitydomain.ReasonNoToken.Message())
			return
		}
		if !rbac.Authorize(p, roles...) {
			Abort(c, http.StatusForbidden, forbiddenMessage(p, roles))
			return
		}
		c.Next()
	}
}

func forbiddenMessage(p *identitydomain.Principal, roles []userdomain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return "User " + p.ID + " needs a valid role: [" + strings.Join(names, ", ") + "]"
}
