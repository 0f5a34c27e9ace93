// Package service implements the account, password reset and AI proxy
// operations.  Every error returned to handlers is either an apperr error or
// an internal error rendered as a generic 500.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/devvibe-backend/internal/model"
)

// UserStore is the account persistence capability.  Create must be atomic
// create-if-absent on email and UpdatePassword must only succeed while the
// stored hash still equals oldHash.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, oldHash, newHash string) error
}

// TokenConfig carries the signing secret and credential lifetimes.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	ResetTTL   time.Duration
	BcryptCost int
}
