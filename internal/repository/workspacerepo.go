package repository

import (
	"context"
	"time"

	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// WorkspaceRepository provides access to workspace credential bundles.
type WorkspaceRepository interface {
	// Create inserts a new workspace. Returns errs.ErrAlreadyExists when the
	// owner already has a workspace with that name.
	Create(ctx context.Context, w *model.Workspace) error
	// GetByID loads a workspace scoped to its owner.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Workspace, error)
	// ListByUser returns all of the user's workspaces, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error)
	// DeleteCascade revokes every active token scoped to the workspace and
	// deletes the workspace row, in one transaction with revocation ordered
	// first. Returns errs.ErrNotFound for a workspace outside the user's
	// namespace.
	DeleteCascade(ctx context.Context, userID, id uuid.UUID, now time.Time) error
	// TouchLastUsed records a successful credential resolution. Best-effort.
	TouchLastUsed(ctx context.Context, id uuid.UUID, now time.Time) error
}
