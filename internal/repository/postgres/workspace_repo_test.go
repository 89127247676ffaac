package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var workspaceCols = []string{"id", "user_id", "name", "base_url", "username", "secret_enc", "nonce",
	"created_at", "updated_at", "last_used_at"}

func TestWorkspaceRepo_Create_OK_and_DuplicateName(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWorkspaceRepo(db)
	w := &model.Workspace{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Name:      "prod",
		BaseURL:   "https://tickets.example.com",
		Username:  "bot@x.com",
		SecretEnc: []byte("ct"),
		Nonce:     []byte("n"),
	}

	mock.ExpectExec(`INSERT INTO workspaces \(id, user_id, name, base_url, username, secret_enc, nonce\)`).
		WithArgs(w.ID, w.UserID, w.Name, w.BaseURL, w.Username, w.SecretEnc, w.Nonce).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), w))

	mock.ExpectExec(`INSERT INTO workspaces \(id, user_id, name, base_url, username, secret_enc, nonce\)`).
		WithArgs(w.ID, w.UserID, w.Name, w.BaseURL, w.Username, w.SecretEnc, w.Nonce).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(context.Background(), w), errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepo_GetByID_ScopedToOwner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWorkspaceRepo(db)
	id := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, owner).
		WillReturnRows(pgxmock.NewRows(workspaceCols).
			AddRow(id, owner, "prod", "https://tickets.example.com", "bot@x.com", []byte("ct"), []byte("n"), now, now, nil))
	w, err := r.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	require.Equal(t, "prod", w.Name)

	// Same id, wrong owner: scoped lookup misses.
	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, stranger).
		WillReturnRows(pgxmock.NewRows(workspaceCols))
	_, err = r.GetByID(context.Background(), stranger, id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepo_DeleteCascade_RevokesThenDeletes(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWorkspaceRepo(db)
	id := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tokens SET revoked_at=\$3 WHERE workspace_id=\$1 AND user_id=\$2 AND revoked_at IS NULL`).
		WithArgs(id, owner, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`DELETE FROM workspaces WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	require.NoError(t, r.DeleteCascade(context.Background(), owner, id, now))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepo_DeleteCascade_UnknownWorkspaceRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewWorkspaceRepo(db)
	id := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tokens SET revoked_at=\$3 WHERE workspace_id=\$1 AND user_id=\$2 AND revoked_at IS NULL`).
		WithArgs(id, owner, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`DELETE FROM workspaces WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()
	require.ErrorIs(t, r.DeleteCascade(context.Background(), owner, id, now), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
