package domain

import "time"

// LogoutEvent is an append-only record of one logout attempt.
type LogoutEvent struct {
	ID             string
	OwnerID        string
	Token          string
	TokenExpiresAt time.Time
	ClientIP       string // empty when unknown
	UserAgent      string // empty when unknown
	LoggedOutAt    time.Time
}
