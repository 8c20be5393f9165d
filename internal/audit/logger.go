package audit

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"casas-auth/internal/audit/domain"
)

// Column limits of logout_events.
const (
	maxIPLen        = 100
	maxUserAgentLen = 255
)

// Meta is the client metadata attached to a logout, taken from the transport.
type Meta struct {
	ClientIP  string
	UserAgent string
}

// Logger builds logout events. Persistence is done by the caller so the event can share a
// transaction with the revocation entry.
type Logger struct {
	now func() time.Time
}

// NewLogger returns a Logger stamping events with the wall clock.
func NewLogger() *Logger {
	return &Logger{now: time.Now}
}

// WithClock returns a copy of l reading the current time from now.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	cp := *l
	cp.now = now
	return &cp
}

// LogoutEvent returns a new event for a logout of token by ownerID. Unknown client metadata is
// recorded as empty; invalid UTF-8 is dropped and over-long
// values are truncated to the column length in characters.
func (l *Logger) LogoutEvent(ownerID, token string, tokenExpiresAt time.Time, meta Meta) *domain.LogoutEvent {
	return &domain.LogoutEvent{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Token:          token,
		TokenExpiresAt: tokenExpiresAt.UTC(),
		ClientIP:       clean(meta.ClientIP, maxIPLen),
		UserAgent:      clean(meta.UserAgent, maxUserAgentLen),
		LoggedOutAt:    l.now().UTC(),
	}
}

func clean(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "unknown" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
