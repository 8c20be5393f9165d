// Package handler exposes the auth API over HTTP with gin.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/identity/service"
	"casas-auth/internal/platform/authctx"
	"casas-auth/internal/server/middleware"
	userdomain "casas-auth/internal/user/domain"
	userservice "casas-auth/internal/user/service"
)

// MessageInactiveLogin is shown when the credentials match an inactive account.
const MessageInactiveLogin = "User not Active, contacts admins"

// Authenticator is the auth core used by the HTTP API. *service.AuthService satisfies it.
type Authenticator interface {
	middleware.TokenValidator
	Issue(subjectID string) (string, time.Time, error)
	Login(ctx context.Context, email, password string, meta service.ClientMeta) (service.LoginResult, error)
	Logout(ctx context.Context, p *identitydomain.Principal, token string, meta service.LogoutMeta) (service.LogoutResult, error)
}

// UserManager applies policy-checked user mutations. *userservice.UserService satisfies it.
type UserManager interface {
	UpdateRoles(ctx context.Context, actor *identitydomain.Principal, targetID string, roles []userdomain.Role) (*userdomain.User, error)
	Deactivate(ctx context.Context, actor *identitydomain.Principal, targetID string) (*userdomain.User, error)
	UpdateProfile(ctx context.Context, actor *identitydomain.Principal, targetID string, p userdomain.ProfileUpdate) (*userdomain.User, error)
}

// Handler serves the /auth routes.
type Handler struct {
	auth  Authenticator
	users UserManager
	log   zerolog.Logger
}

// NewHandler returns a Handler.
func NewHandler(auth Authenticator, users UserManager, log zerolog.Logger) *Handler {
	return &Handler{auth: auth, users: users, log: log.With().Str("component", "auth_http").Logger()}
}

// Register mounts the /auth routes on r.
func (h *Handler) Register(r gin.IRouter) {
	authenticated := middleware.Authenticate(h.auth, h.log)

	g := r.Group("/auth")
	g.POST("/login", h.login)
	g.GET("/session", middleware.OptionalAuthenticate(h.auth, h.log), h.session)
	g.POST("/logout", authenticated, h.logout)
	g.GET("/me", authenticated, h.me)
	g.GET("/check-status", authenticated, h.checkStatus)
	g.PATCH("/:id/roles", authenticated,
		middleware.RequireRoles(userdomain.RoleAdmin, userdomain.RoleSuperUser), h.updateRoles)
	g.PATCH("/:id", authenticated, h.updateProfile)
	g.DELETE("/:id", authenticated, h.deactivate)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Address   *string `json:"address"`
}

// UserResponse is the public view of a user; the password hash is never serialized.
type UserResponse struct {
	ID        string    `json:"id"`
	CI        string    `json:"ci,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	Token     string    `json:"token,omitempty"`
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Message          string `json:"message"`
	UserID           string `json:"userId"`
	Timestamp        string `json:"timestamp"`
	TokenBlacklisted bool   `json:"tokenBlacklisted"`
}

func toUserResponse(u *userdomain.User) UserResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return UserResponse{
		ID:        u.ID,
		CI:        u.CI,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Address:   u.Address,
		Roles:     roles,
		IsActive:  u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{ClientIP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, clientMeta(c))
	if err != nil {
		h.serverError(c, err, "login failed")
		return
	}
	if res.Reason.Rejected() {
		msg := res.Reason.Message()
		if res.Inactive {
			msg = MessageInactiveLogin
		}
		middleware.Abort(c, http.StatusUnauthorized, msg)
		return
	}
	out := toUserResponse(res.User)
	out.Token = res.Token
	c.JSON(http.StatusOK, out)
}

func (h *Handler) logout(c *gin.Context) {
	ctx := c.Request.Context()
	p, _ := authctx.Principal(ctx)
	token, _ := authctx.Token(ctx)
	res, err := h.auth.Logout(ctx, p, token, clientMeta(c))
	if err != nil {
		h.serverError(c, err, "logout failed")
		return
	}
	if res.Reason.Rejected() {
		middleware.Abort(c, http.StatusUnauthorized, res.Reason.Message())
		return
	}
	c.JSON(http.StatusOK, LogoutResponse{
		Message:          "Logout successful",
		UserID:           res.Receipt.OwnerID,
		Timestamp:        res.Receipt.Timestamp.UTC().Format(time.RFC3339Nano),
		TokenBlacklisted: res.Receipt.Revoked,
	})
}

func (h *Handler) me(c *gin.Context) {
	p, err := authctx.PrincipalOrError(c.Request.Context())
	if err != nil || p.User == nil {
		middleware.Abort(c, http.StatusUnauthorized, identitydomain.ReasonInvalidToken.Message())
		return
	}
	c.JSON(http.StatusOK, toUserResponse(p.User))
}

// checkStatus returns the caller with a freshly issued token; the presented token keeps its expiry.
func (h *Handler) checkStatus(c *gin.Context) {
	p, ok := authctx.Principal(c.Request.Context())
	if !ok || p.User == nil {
		middleware.Abort(c, http.StatusUnauthorized, identitydomain.ReasonInvalidToken.Message())
		return
	}
	token, _, err := h.auth.Issue(p.ID)
	if err != nil {
		h.serverError(c, err, "token issue failed")
		return
	}
	out := toUserResponse(p.User)
	out.Token = token
	c.JSON(http.StatusOK, out)
}

func (h *Handler) session(c *gin.Context) {
	p, ok := authctx.Principal(c.Request.Context())
	if !ok || p.User == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": toUserResponse(p.User)})
}

func (h *Handler) updateRoles(c *gin.Context) {
	var req updateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	roles := make([]userdomain.Role, len(req.Roles))
	for i, r := range req.Roles {
		roles[i] = userdomain.Role(strings.TrimSpace(r))
	}
	p, _ := authctx.Principal(c.Request.Context())
	u, err := h.users.UpdateRoles(c.Request.Context(), p, c.Param("id"), roles)
	if err != nil {
		h.userError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	p, _ := authctx.Principal(c.Request.Context())
	u, err := h.users.UpdateProfile(c.Request.Context(), p, c.Param("id"), userdomain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	})
	if err != nil {
		h.userError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) deactivate(c *gin.Context) {
	p, _ := authctx.Principal(c.Request.Context())
	u, err := h.users.Deactivate(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.userError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) userError(c *gin.Context, err error) {
	var denied *userservice.DeniedError
	switch {
	case errors.Is(err, userservice.ErrInvalidRoles):
		middleware.Abort(c, http.StatusBadRequest, "Role must be user, admin or superUser")
	case errors.Is(err, userservice.ErrInvalidProfile):
		middleware.Abort(c, http.StatusBadRequest, "firstName and lastName must not be blank; at least one field is required")
	case errors.Is(err, userservice.ErrUserNotFound):
		middleware.Abort(c, http.StatusNotFound, "User with id: "+c.Param("id")+" not found")
	case errors.As(err, &denied):
		middleware.Abort(c, http.StatusForbidden, denied.Error())
	default:
		h.serverError(c, err, "user mutation failed")
	}
}

func (h *Handler) serverError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	middleware.Abort(c, http.StatusInternalServerError, middleware.MessageServerError)
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return "Invalid email format"
	case fe.Tag() == "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case fe.Field() == "Roles":
		return "roles must be a non-empty list"
	case fe.Tag() == "required":
		return fe.Field() + " is required"
	}
	return fe.Field() + " is invalid"
}
