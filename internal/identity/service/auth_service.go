package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"casas-auth/internal/audit"
	auditdomain "casas-auth/internal/audit/domain"
	identitydomain "casas-auth/internal/identity/domain"
	revocationdomain "casas-auth/internal/revocation/domain"
	"casas-auth/internal/security"
	"casas-auth/internal/telemetry"
	telemetrydomain "casas-auth/internal/telemetry/domain"
	telemetryotel "casas-auth/internal/telemetry/otel"
	userdomain "casas-auth/internal/user/domain"
)

// ErrStoreUnavailable is returned when a backing store (revocations, users, audit) fails or times out.
// Rejections are never reported through it.
var ErrStoreUnavailable = errors.New("auth store unavailable")

// DefaultStoreTimeout bounds a single store call when Options.StoreTimeout is unset.
const DefaultStoreTimeout = 3 * time.Second

// UserLookup is the minimal user repository needed by the auth service.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	Exists(ctx context.Context, token string) (bool, error)
}

// LogoutRecorder atomically appends a logout event and inserts a revocation entry.
type LogoutRecorder interface {
	RecordLogout(ctx context.Context, ev *auditdomain.LogoutEvent, entry *revocationdomain.Entry) (bool, error)
}

// revocationCache is implemented by checkers that can be primed after a logout commits.
type revocationCache interface {
	Remember(ctx context.Context, e *revocationdomain.Entry)
}

// Verdict is the outcome of Validate. Principal is set iff Reason is ReasonNone.
type Verdict struct {
	Principal *identitydomain.Principal
	Claims    *security.Claims
	Reason    identitydomain.Reason
}

// Accepted reports whether the token was accepted.
func (v Verdict) Accepted() bool {
	return !v.Reason.Rejected() && v.Principal != nil
}

// LoginResult is the outcome of Login. On success User (without PasswordHash), Token and ExpiresAt are set.
type LoginResult struct {
	User      *userdomain.User
	Token     string
	ExpiresAt time.Time
	Reason    identitydomain.Reason
	// Inactive is set with ReasonInvalidCredentials when the password matched a deactivated user.
	Inactive bool
}

// Receipt confirms a logout.
type Receipt struct {
	OwnerID   string
	Timestamp time.Time
	Revoked   bool
}

// LogoutResult is the outcome of Logout. Receipt is set iff Reason is ReasonNone.
type LogoutResult struct {
	Receipt *Receipt
	Reason  identitydomain.Reason
	// NewlyRevoked is false when the token already had a revocation entry.
	NewlyRevoked bool
}

// ClientMeta is the client metadata taken from the transport.
type ClientMeta = audit.Meta

// LogoutMeta is the client metadata recorded with a logout.
type LogoutMeta = ClientMeta

// Options holds the optional collaborators of AuthService.
type Options struct {
	// StoreTimeout bounds each store call; DefaultStoreTimeout when zero.
	StoreTimeout time.Duration
	Log          zerolog.Logger
	// Metrics may be nil.
	Metrics *telemetryotel.Metrics
	// Events receives auth events asynchronously; nil disables publishing.
	Events telemetry.EventEmitter
	// Now is the service clock; time.Now when nil.
	Now func() time.Time
}

// AuthService implements login, token validation and logout.
type AuthService struct {
	users        UserLookup
	revocations  RevocationChecker
	recorder     LogoutRecorder
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	audit        *audit.Logger
	storeTimeout time.Duration
	log          zerolog.Logger
	metrics      *telemetryotel.Metrics
	events       telemetry.EventEmitter
	now          func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserLookup,
	revocations RevocationChecker,
	recorder LogoutRecorder,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	opts Options,
) *AuthService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:        users,
		revocations:  revocations,
		recorder:     recorder,
		hasher:       hasher,
		tokens:       tokens,
		audit:        audit.NewLogger().WithClock(opts.Now),
		storeTimeout: opts.StoreTimeout,
		log:          opts.Log.With().Str("component", "auth").Logger(),
		metrics:      opts.Metrics,
		events:       opts.Events,
		now:          opts.Now,
	}
}

// Issue signs a token for subjectID.
func (s *AuthService) Issue(subjectID string) (string, time.Time, error) {
	return s.tokens.Issue(subjectID)
}

// Validate checks token signature and expiry, then the revocation list, then the subject.
// Structural and expiry failures never reach a store. Store faults return ErrStoreUnavailable
// with a zero Verdict, so callers fail closed.
func (s *AuthService) Validate(ctx context.Context, token string) (Verdict, error) {
	v, err := s.validate(ctx, token)
	switch {
	case err != nil:
		s.metrics.Validation(ctx, "error")
	case v.Reason.Rejected():
		s.metrics.Validation(ctx, string(v.Reason))
	default:
		s.metrics.Validation(ctx, "accepted")
	}
	return v, err
}

func (s *AuthService) validate(ctx context.Context, token string) (Verdict, error) {
	if token == "" {
		return Verdict{Reason: identitydomain.ReasonNoToken}, nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return Verdict{Reason: identitydomain.ReasonTokenExpired}, nil
		}
		return Verdict{Reason: identitydomain.ReasonInvalidToken}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	revoked, err := s.revocations.Exists(storeCtx, token)
	if err != nil {
		s.log.Error().Err(err).Str("subject_id", claims.SubjectID).Msg("revocation lookup failed")
		return Verdict{}, storeErr(err)
	}
	if revoked {
		return Verdict{Claims: claims, Reason: identitydomain.ReasonTokenRevoked}, nil
	}

	u, err := s.users.GetByID(storeCtx, claims.SubjectID)
	if err != nil {
		s.log.Error().Err(err).Str("subject_id", claims.SubjectID).Msg("principal lookup failed")
		return Verdict{}, storeErr(err)
	}
	if u == nil {
		return Verdict{Claims: claims, Reason: identitydomain.ReasonInvalidToken}, nil
	}
	if !u.Active {
		return Verdict{Claims: claims, Reason: identitydomain.ReasonInactive}, nil
	}
	return Verdict{Principal: identitydomain.PrincipalFromUser(u), Claims: claims}, nil
}

// Login verifies email and password and issues a token. Unknown email, wrong password and
// inactive user all yield ReasonInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ClientMeta) (LoginResult, error) {
	res, subjectID, err := s.login(ctx, email, password)
	switch {
	case err != nil:
		s.metrics.Login(ctx, "error")
	case res.Reason.Rejected():
		s.metrics.Login(ctx, string(res.Reason))
		telemetry.EmitAsync(s.events, s.log, &telemetrydomain.AuthEvent{
			Type:       telemetrydomain.EventLoginFailure,
			SubjectID:  subjectID,
			Reason:     string(res.Reason),
			ClientIP:   meta.ClientIP,
			UserAgent:  meta.UserAgent,
			OccurredAt: s.now().UTC(),
		})
	default:
		s.metrics.Login(ctx, "accepted")
		telemetry.EmitAsync(s.events, s.log, &telemetrydomain.AuthEvent{
			Type:       telemetrydomain.EventLogin,
			SubjectID:  subjectID,
			ClientIP:   meta.ClientIP,
			UserAgent:  meta.UserAgent,
			OccurredAt: s.now().UTC(),
		})
	}
	return res, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (LoginResult, string, error) {
	rejected := LoginResult{Reason: identitydomain.ReasonInvalidCredentials}
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return rejected, "", nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	u, err := s.users.GetByEmail(storeCtx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("user lookup failed")
		return LoginResult{}, "", storeErr(err)
	}
	if u == nil {
		return rejected, "", nil
	}
	if !s.hasher.Verify([]byte(password), u.PasswordHash) {
		return rejected, u.ID, nil
	}
	if !u.Active {
		rejected.Inactive = true
		return rejected, u.ID, nil
	}

	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return LoginResult{}, u.ID, fmt.Errorf("issue token: %w", err)
	}
	out := *u
	out.PasswordHash = ""
	return LoginResult{User: &out, Token: token, ExpiresAt: exp}, u.ID, nil
}

// Logout revokes token on behalf of p and appends a logout event. The token must carry a valid
// signature; its time claims are not checked, so expired or already-revoked tokens are accepted.
// Repeating a logout is a success: a new event is appended and the existing entry is kept.
func (s *AuthService) Logout(ctx context.Context, p *identitydomain.Principal, token string, meta LogoutMeta) (LogoutResult, error) {
	if token == "" {
		return LogoutResult{Reason: identitydomain.ReasonNoToken}, nil
	}
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return LogoutResult{Reason: identitydomain.ReasonInvalidToken}, nil
	}
	owner := claims.SubjectID
	if p != nil && p.ID != "" {
		owner = p.ID
	}

	ev := s.audit.LogoutEvent(owner, token, claims.ExpiresAtTime(), meta)
	entry := &revocationdomain.Entry{
		Token:     token,
		OwnerID:   owner,
		ExpiresAt: claims.ExpiresAtTime(),
		Reason:    revocationdomain.ReasonLogout,
		CreatedAt: ev.LoggedOutAt,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	inserted, err := s.recorder.RecordLogout(storeCtx, ev, entry)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", owner).Msg("logout write failed")
		return LogoutResult{}, storeErr(err)
	}
	if c, ok := s.revocations.(revocationCache); ok {
		c.Remember(ctx, entry)
	}

	s.metrics.Logout(ctx, inserted)
	s.log.Info().Str("owner_id", owner).Bool("newly_revoked", inserted).Msg("logout")
	telemetry.EmitAsync(s.events, s.log, &telemetrydomain.AuthEvent{
		Type:         telemetrydomain.EventLogout,
		SubjectID:    owner,
		ClientIP:     ev.ClientIP,
		UserAgent:    ev.UserAgent,
		NewlyRevoked: inserted,
		OccurredAt:   ev.LoggedOutAt,
	})

	return LogoutResult{
		Receipt:      &Receipt{OwnerID: owner, Timestamp: ev.LoggedOutAt, Revoked: true},
		NewlyRevoked: inserted,
	}, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
