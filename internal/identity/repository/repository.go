package repository

import (
	"context"

	auditdomain "casas-auth/internal/audit/domain"
	revocationdomain "casas-auth/internal/revocation/domain"
)

// LogoutRecorder persists a logout: the audit event and the revocation entry land together or not at all.
type LogoutRecorder interface {
	// RecordLogout appends ev and inserts entry if absent. inserted is false when the token was already revoked.
	RecordLogout(ctx context.Context, ev *auditdomain.LogoutEvent, entry *revocationdomain.Entry) (inserted bool, err error)
}
