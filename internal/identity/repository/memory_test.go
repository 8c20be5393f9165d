package repository

import (
	"context"
	"testing"
	"time"

	auditdomain "casas-auth/internal/audit/domain"
	auditrepo "casas-auth/internal/audit/repository"
	revocationdomain "casas-auth/internal/revocation/domain"
	revocationrepo "casas-auth/internal/revocation/repository"
)

func TestMemoryRecorder_RecordLogout(t *testing.T) {
	ctx := context.Background()
	events := auditrepo.NewMemoryRepository()
	revs := revocationrepo.NewMemoryRepository()
	rec := NewMemoryRecorder(events, revs)
	exp := time.Now().Add(time.Hour)

	entry := &revocationdomain.Entry{Token: "tok", OwnerID: "u1", ExpiresAt: exp}
	inserted, err := rec.RecordLogout(ctx, &auditdomain.LogoutEvent{ID: "e1", OwnerID: "u1", Token: "tok"}, entry)
	if err != nil || !inserted {
		t.Fatalf("first RecordLogout = %v, %v", inserted, err)
	}
	inserted, err = rec.RecordLogout(ctx, &auditdomain.LogoutEvent{ID: "e2", OwnerID: "u1", Token: "tok"}, entry)
	if err != nil || inserted {
		t.Fatalf("second RecordLogout = %v, %v; want false, nil", inserted, err)
	}
	if events.Len() != 2 {
		t.Errorf("events = %d, want 2", events.Len())
	}
	if revs.Len() != 1 {
		t.Errorf("revocations = %d, want 1", revs.Len())
	}
}
