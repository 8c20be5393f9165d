package repository

import (
	"context"
	"sync"

	auditdomain "casas-auth/internal/audit/domain"
	auditrepo "casas-auth/internal/audit/repository"
	revocationdomain "casas-auth/internal/revocation/domain"
	revocationrepo "casas-auth/internal/revocation/repository"
)

// MemoryRecorder records logouts into in-memory repositories. A mutex stands in for the transaction.
type MemoryRecorder struct {
	mu          sync.Mutex
	events      auditrepo.Repository
	revocations revocationrepo.Repository
}

// NewMemoryRecorder returns a LogoutRecorder writing to events and revocations.
func NewMemoryRecorder(events auditrepo.Repository, revocations revocationrepo.Repository) *MemoryRecorder {
	return &MemoryRecorder{events: events, revocations: revocations}
}

func (r *MemoryRecorder) RecordLogout(ctx context.Context, ev *auditdomain.LogoutEvent, entry *revocationdomain.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.events.Create(ctx, ev); err != nil {
		return false, err
	}
	return r.revocations.Insert(ctx, entry)
}
