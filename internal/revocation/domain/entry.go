package domain

import "time"

// ReasonLogout marks an entry created by an explicit logout.
const ReasonLogout = "logout"

// Entry records a token invalidated before its natural expiry. Token is unique.
type Entry struct {
	Token     string
	OwnerID   string
	ExpiresAt time.Time
	Reason    string
	CreatedAt time.Time
}

// Expired reports whether the entry's token had naturally expired strictly before now.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}
