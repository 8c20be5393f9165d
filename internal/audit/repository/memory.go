package repository

import (
	"context"
	"sync"

	"casas-auth/internal/audit/domain"
)

// MemoryRepository is an in-process Repository. Safe for concurrent use.
type MemoryRepository struct {
	mu     sync.Mutex
	events []domain.LogoutEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, e *domain.LogoutEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

// Events returns a copy of the stored events in insertion order.
func (r *MemoryRepository) Events() []domain.LogoutEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LogoutEvent(nil), r.events...)
}

// Len returns the number of stored events.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
