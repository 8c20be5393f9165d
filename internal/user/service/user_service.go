package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	identitydomain "casas-auth/internal/identity/domain"
	"casas-auth/internal/telemetry"
	telemetrydomain "casas-auth/internal/telemetry/domain"
	userdomain "casas-auth/internal/user/domain"
	"casas-auth/internal/user/policy"
)

// Sentinel errors for the user service; handlers map them to status codes.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRoles = errors.New("invalid roles")
	// ErrInvalidProfile is returned for an empty update or a blank or over-long name.
	ErrInvalidProfile = errors.New("invalid profile")
	ErrForbidden    = errors.New("operation not permitted")
)

// DeniedError carries the policy reasons behind ErrForbidden.
type DeniedError struct {
	Reasons []string
}

func (e *DeniedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrForbidden.Error()
	}
	return ErrForbidden.Error() + ": " + strings.Join(e.Reasons, "; ")
}

// Is makes errors.Is(err, ErrForbidden) hold.
func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Repo is the minimal user repository needed by the user service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	UpdateRoles(ctx context.Context, id string, roles []userdomain.Role) (*userdomain.User, error)
	UpdateProfile(ctx context.Context, id string, p userdomain.ProfileUpdate) (*userdomain.User, error)
	SetActive(ctx context.Context, id string, active bool) (*userdomain.User, error)
}

const maxNameLen = 100

// Decider evaluates the user mutation policy.
type Decider interface {
	Decide(ctx context.Context, req policy.Request) (policy.Decision, error)
}

// UserService applies role changes and deactivations after consulting the policy.
type UserService struct {
	repo   Repo
	policy Decider
	log    zerolog.Logger
	events telemetry.EventEmitter
}

// NewUserService returns a UserService. events may be nil.
func NewUserService(repo Repo, decider Decider, log zerolog.Logger, events telemetry.EventEmitter) *UserService {
	return &UserService{
		repo:   repo,
		policy: decider,
		log:    log.With().Str("component", "users").Logger(),
		events: events,
	}
}

// UpdateRoles replaces the target's role set. roles are deduplicated and must be known.
func (s *UserService) UpdateRoles(ctx context.Context, actor *identitydomain.Principal, targetID string, roles []userdomain.Role) (*userdomain.User, error) {
	roles, err := normalizeRoles(roles)
	if err != nil {
		return nil, err
	}
	target, err := s.authorize(ctx, actor, targetID, policy.OpUpdateRoles, roles)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.UpdateRoles(ctx, target.ID, roles)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	s.log.Info().Str("actor_id", actor.ID).Str("target_id", u.ID).Msg("roles updated")
	s.emit(telemetrydomain.EventRolesUpdated, actor.ID, u.ID)
	return u, nil
}

// UpdateProfile changes the target's names and address. Values are trimmed; names may not be
// blank.
func (s *UserService) UpdateProfile(ctx context.Context, actor *identitydomain.Principal, targetID string, p userdomain.ProfileUpdate) (*userdomain.User, error) {
	p, err := normalizeProfile(p)
	if err != nil {
		return nil, err
	}
	target, err := s.authorize(ctx, actor, targetID, policy.OpUpdateProfile, nil)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.UpdateProfile(ctx, target.ID, p)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	s.log.Info().Str("actor_id", actor.ID).Str("target_id", u.ID).Msg("profile updated")
	s.emit(telemetrydomain.EventProfileUpdated, actor.ID, u.ID)
	return u, nil
}

// Deactivate marks the target inactive. Its outstanding tokens are rejected from then on.
func (s *UserService) Deactivate(ctx context.Context, actor *identitydomain.Principal, targetID string) (*userdomain.User, error) {
	target, err := s.authorize(ctx, actor, targetID, policy.OpDeactivate, nil)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.SetActive(ctx, target.ID, false)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	s.log.Info().Str("actor_id", actor.ID).Str("target_id", u.ID).Msg("user deactivated")
	s.emit(telemetrydomain.EventUserDeactivated, actor.ID, u.ID)
	return u, nil
}

func (s *UserService) authorize(ctx context.Context, actor *identitydomain.Principal, targetID string, op policy.Operation, roles []userdomain.Role) (*userdomain.User, error) {
	if actor == nil {
		return nil, &DeniedError{Reasons: []string{"authentication required"}}
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, ErrUserNotFound
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	d, err := s.policy.Decide(ctx, policy.Request{
		Operation:      op,
		Actor:          policy.Subject{ID: actor.ID, Roles: actor.Roles},
		Target:         policy.Subject{ID: target.ID, Roles: target.Roles},
		RequestedRoles: roles,
	})
	if err != nil {
		return nil, err
	}
	if !d.Allow {
		return nil, &DeniedError{Reasons: d.Reasons}
	}
	return target, nil
}

func (s *UserService) emit(t telemetrydomain.EventType, actorID, subjectID string) {
	telemetry.EmitAsync(s.events, s.log, &telemetrydomain.AuthEvent{
		Type:       t,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
	})
}

func normalizeRoles(roles []userdomain.Role) ([]userdomain.Role, error) {
	if len(roles) == 0 {
		return nil, ErrInvalidRoles
	}
	seen := make(map[userdomain.Role]bool, len(roles))
	out := make([]userdomain.Role, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, ErrInvalidRoles
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out, nil
}

func normalizeProfile(p userdomain.ProfileUpdate) (userdomain.ProfileUpdate, error) {
	if p.Empty() {
		return p, ErrInvalidProfile
	}
	var err error
	if p.FirstName, err = trimName(p.FirstName); err != nil {
		return p, err
	}
	if p.LastName, err = trimName(p.LastName); err != nil {
		return p, err
	}
	if p.Address != nil {
		v := strings.TrimSpace(*p.Address)
		p.Address = &v
	}
	return p, nil
}

func trimName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*name)
	if v == "" || utf8.RuneCountInString(v) > maxNameLen {
		return nil, ErrInvalidProfile
	}
	return &v, nil
}
