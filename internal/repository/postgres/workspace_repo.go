package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// WorkspaceRepo implements WorkspaceRepository using PostgreSQL.
type WorkspaceRepo struct{ db *DB }

// NewWorkspaceRepo constructs a workspace repository.
func NewWorkspaceRepo(db *DB) *WorkspaceRepo { return &WorkspaceRepo{db: db} }

const workspaceColumns = `id, user_id, name, base_url, username, secret_enc, nonce, created_at, updated_at, last_used_at`

// Create inserts a new workspace row.
func (r *WorkspaceRepo) Create(ctx context.Context, w *model.Workspace) error {
	const q = `
INSERT INTO workspaces (id, user_id, name, base_url, username, secret_enc, nonce)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, w.ID, w.UserID, w.Name, w.BaseURL, w.Username, w.SecretEnc, w.Nonce)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a workspace scoped to its owner.
func (r *WorkspaceRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Workspace, error) {
	const q = `
SELECT ` + workspaceColumns + `
FROM workspaces WHERE id=$1 AND user_id=$2`
	row := r.db.Pool.QueryRow(ctx, q, id, userID)
	var w model.Workspace
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.BaseURL, &w.Username, &w.SecretEnc, &w.Nonce,
		&w.CreatedAt, &w.UpdatedAt, &w.LastUsedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &w, nil
}

// ListByUser selects all workspaces owned by userID, newest first.
func (r *WorkspaceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error) {
	const q = `
SELECT ` + workspaceColumns + `
FROM workspaces WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.BaseURL, &w.Username, &w.SecretEnc, &w.Nonce,
			&w.CreatedAt, &w.UpdatedAt, &w.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteCascade revokes every active token scoped to the workspace, then
// deletes the workspace, in one transaction. Revocation is ordered first so
// a mid-sequence failure can never leave a live token pointing at a deleted
// workspace.
func (r *WorkspaceRepo) DeleteCascade(ctx context.Context, userID, id uuid.UUID, now time.Time) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const revokeQ = `
UPDATE tokens SET revoked_at=$3
WHERE workspace_id=$1 AND user_id=$2 AND revoked_at IS NULL`
	if _, err := tx.Exec(ctx, revokeQ, id, userID, now); err != nil {
		return err
	}

	const deleteQ = `DELETE FROM workspaces WHERE id=$1 AND user_id=$2`
	tag, err := tx.Exec(ctx, deleteQ, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return tx.Commit(ctx)
}

// TouchLastUsed records a successful credential resolution.
func (r *WorkspaceRepo) TouchLastUsed(ctx context.Context, id uuid.UUID, now time.Time) error {
	const q = `UPDATE workspaces SET last_used_at=$2 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, now)
	return err
}
