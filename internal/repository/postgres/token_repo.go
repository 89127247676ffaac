package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

const tokenColumns = `id, user_id, secret_hash, prefix, name, workspace_id, created_at, last_used_at, expires_at, revoked_at`

// Create inserts a new token row.
func (r *TokenRepo) Create(ctx context.Context, t *model.Token) error {
	const q = `
INSERT INTO tokens (id, user_id, secret_hash, prefix, name, workspace_id, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.UserID, t.SecretHash, t.Prefix, t.Name, t.WorkspaceID, t.ExpiresAt)
	return err
}

// GetUsableByHash selects the unrevoked, unexpired token matching hash.
// Wrong hash, revoked and expired are indistinguishable: all ErrNotFound.
func (r *TokenRepo) GetUsableByHash(ctx context.Context, hash []byte, now time.Time) (*model.Token, error) {
	const q = `
SELECT ` + tokenColumns + `
FROM tokens
WHERE secret_hash=$1 AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $2)`
	return scanToken(r.db.Pool.QueryRow(ctx, q, hash, now))
}

// ListByUser selects all tokens owned by userID, newest first.
func (r *TokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Token, error) {
	const q = `
SELECT ` + tokenColumns + `
FROM tokens WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Token
	for rows.Next() {
		var t model.Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.SecretHash, &t.Prefix, &t.Name, &t.WorkspaceID,
			&t.CreatedAt, &t.LastUsedAt, &t.ExpiresAt, &t.RevokedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Revoke sets revoked_at once; a second revoke reports ErrAlreadyRevoked.
func (r *TokenRepo) Revoke(ctx context.Context, userID, tokenID uuid.UUID, now time.Time) error {
	const q = `
UPDATE tokens SET revoked_at=$3
WHERE id=$1 AND user_id=$2 AND revoked_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, tokenID, userID, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Either already revoked or not the caller's token; tell the two apart
	// within the caller's own namespace only.
	const probe = `SELECT revoked_at FROM tokens WHERE id=$1 AND user_id=$2`
	var revokedAt *time.Time
	if err := r.db.Pool.QueryRow(ctx, probe, tokenID, userID).Scan(&revokedAt); err != nil {
		return errs.ErrNotFound
	}
	if revokedAt != nil {
		return errs.ErrAlreadyRevoked
	}
	return errs.ErrNotFound
}

// TouchLastUsed records a successful validation.
func (r *TokenRepo) TouchLastUsed(ctx context.Context, tokenID uuid.UUID, now time.Time) error {
	const q = `UPDATE tokens SET last_used_at=$2 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, tokenID, now)
	return err
}

func scanToken(row rowScanner) (*model.Token, error) {
	var t model.Token
	if err := row.Scan(&t.ID, &t.UserID, &t.SecretHash, &t.Prefix, &t.Name, &t.WorkspaceID,
		&t.CreatedAt, &t.LastUsedAt, &t.ExpiresAt, &t.RevokedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &t, nil
}
