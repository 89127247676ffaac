// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to user accounts. There is no update path:
// accounts are immutable after registration.
type UserRepository interface {
	// Create inserts a new user. Returns errs.ErrAlreadyExists when the
	// normalized email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
