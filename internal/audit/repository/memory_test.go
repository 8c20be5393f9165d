package repository

import (
	"context"
	"testing"
	"time"

	"casas-auth/internal/audit/domain"
)

func TestMemoryRepository_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"e1", "e2", "e3"} {
		ev := &domain.LogoutEvent{ID: id, OwnerID: "u1", Token: "same", LoggedOutAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	_ = repo.Create(ctx, &domain.LogoutEvent{ID: "x", OwnerID: "u2", LoggedOutAt: base})

	if repo.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", repo.Len())
	}
	events := repo.Events()
	if events[0].ID != "e1" || events[3].ID != "x" {
		t.Errorf("order = %s..%s; want insertion order", events[0].ID, events[3].ID)
	}
	for _, e := range events[:3] {
		if e.Token != "same" {
			t.Errorf("event %s token = %q", e.ID, e.Token)
		}
	}

	events[0].OwnerID = "mutated"
	if repo.Events()[0].OwnerID != "u1" {
		t.Error("Events must return a copy")
	}
}
