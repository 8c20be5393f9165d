package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"casas-auth/internal/user/domain"
)

// ErrDuplicateEmail is returned by MemoryRepository.Create when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// MemoryRepository is an in-process Repository. Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]domain.User)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := clone(u)
	out.PasswordHash = ""
	return out, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	email := domain.NormalizeEmail(u.Email)
	for _, have := range r.users {
		if have.Email == email {
			return ErrDuplicateEmail
		}
	}
	stored := *clone(*u)
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateRoles(_ context.Context, id string, roles []domain.Role) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) {
		u.Roles = append([]domain.Role(nil), roles...)
	})
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, id string, p domain.ProfileUpdate) (*domain.User, error) {
	return r.mutate(id, p.Apply)
}

func (r *MemoryRepository) SetActive(_ context.Context, id string, active bool) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) { u.Active = active })
}

func (r *MemoryRepository) mutate(id string, fn func(*domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	fn(&u)
	r.users[id] = u
	out := clone(u)
	out.PasswordHash = ""
	return out, nil
}

func clone(u domain.User) *domain.User {
	u.Roles = append([]domain.Role(nil), u.Roles...)
	return &u
}
