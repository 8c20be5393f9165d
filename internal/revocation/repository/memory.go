package repository

import (
	"context"
	"sync"
	"time"

	"casas-auth/internal/revocation/domain"
)

// MemoryRepository is an in-process Repository. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
}

// NewMemoryRepository returns an empty in-memory revocation repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]domain.Entry)}
}

func (r *MemoryRepository) Exists(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[token]
	return ok, nil
}

func (r *MemoryRepository) Insert(_ context.Context, e *domain.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Token]; ok {
		return false, nil
	}
	cp := *e
	if cp.Reason == "" {
		cp.Reason = domain.ReasonLogout
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.entries[e.Token] = cp
	return true, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for tok, e := range r.entries {
		if e.Expired(before) {
			delete(r.entries, tok)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Get returns a copy of the entry for token, or nil.
func (r *MemoryRepository) Get(token string) *domain.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[token]
	if !ok {
		return nil
	}
	return &e
}
