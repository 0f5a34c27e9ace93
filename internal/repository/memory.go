package repository

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/devvibe-backend/internal/model"
)

// MemoryUserRepo keeps accounts in process memory.  It backs USER_STORE=memory
// and the service/handler tests, with the same error semantics as UserRepo.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[uint64]model.User),
		byEmail: make(map[string]uint64),
	}
}

func (r *MemoryUserRepo) Create(_ context.Context, email, passwordHash, name string) (model.User, error) {
	if utf8.RuneCountInString(email) > model.MaxEmailLen || utf8.RuneCountInString(name) > model.MaxNameLen {
		return model.User{}, ErrValueTooLong
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return model.User{}, ErrEmailExists
	}
	r.nextID++
	now := time.Now().UTC()
	u := model.User{
		ID:           r.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) UpdatePassword(_ context.Context, id uint64, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if u.PasswordHash != oldHash {
		return ErrStaleWrite
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now().UTC()
	r.byID[id] = u
	return nil
}
