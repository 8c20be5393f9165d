package domain

import "time"

// EventType names an auth event.
type EventType string

const (
	EventLogin           EventType = "login"
	EventLoginFailure    EventType = "login_failure"
	EventLogout          EventType = "logout"
	EventRolesUpdated    EventType = "roles_updated"
	EventUserDeactivated EventType = "user_deactivated"
	EventProfileUpdated  EventType = "profile_updated"
)

// AuthEvent is a best-effort notification about an auth state change. Tokens are never included.
type AuthEvent struct {
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	// NewlyRevoked is set on logout events; false means the token was already revoked.
	NewlyRevoked bool      `json:"newly_revoked,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
