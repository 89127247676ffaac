package repository

import (
	"context"
	"time"

	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TokenRepository provides access to bearer token records.
type TokenRepository interface {
	// Create inserts a new token row.
	Create(ctx context.Context, t *model.Token) error
	// GetUsableByHash loads the token with the given secret hash if it is
	// unrevoked and unexpired at now. Revoked, expired and unknown hashes
	// are all errs.ErrNotFound.
	GetUsableByHash(ctx context.Context, hash []byte, now time.Time) (*model.Token, error)
	// ListByUser returns all of the user's tokens, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Token, error)
	// Revoke marks the user's token revoked at now. Returns
	// errs.ErrAlreadyRevoked if revoked_at was already set and
	// errs.ErrNotFound for a token outside the user's namespace.
	Revoke(ctx context.Context, userID, tokenID uuid.UUID, now time.Time) error
	// TouchLastUsed records a successful validation. Best-effort.
	TouchLastUsed(ctx context.Context, tokenID uuid.UUID, now time.Time) error
}
