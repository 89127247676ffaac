package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
)

// tokenView is the client-facing shape of a token record. The secret hash
// never leaves the vault.
type tokenView struct {
	ID          uuid.UUID  `json:"id"`
	Prefix      string     `json:"prefix"`
	Name        string     `json:"name"`
	WorkspaceID *uuid.UUID `json:"workspaceId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

func toTokenView(t model.Token) tokenView {
	return tokenView{
		ID:          t.ID,
		Prefix:      t.Prefix,
		Name:        t.Name,
		WorkspaceID: t.WorkspaceID,
		CreatedAt:   t.CreatedAt,
		LastUsedAt:  t.LastUsedAt,
		ExpiresAt:   t.ExpiresAt,
		RevokedAt:   t.RevokedAt,
	}
}

// workspaceView is the client-facing shape of a workspace; the encrypted
// secret and its nonce are omitted entirely.
type workspaceView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	BaseURL    string     `json:"baseUrl"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

func toWorkspaceView(w model.Workspace) workspaceView {
	return workspaceView{
		ID:         w.ID,
		Name:       w.Name,
		BaseURL:    w.BaseURL,
		Username:   w.Username,
		CreatedAt:  w.CreatedAt,
		LastUsedAt: w.LastUsedAt,
	}
}

type tokenOptionsBody struct {
	Name          string     `json:"name"`
	ExpiresInDays *int       `json:"expiresInDays,omitempty"`
	NeverExpires  bool       `json:"neverExpires,omitempty"`
	WorkspaceID   *uuid.UUID `json:"workspaceId,omitempty"`
}

func (b tokenOptionsBody) options() model.TokenOptions {
	return model.TokenOptions{
		Name:          b.Name,
		ExpiresInDays: b.ExpiresInDays,
		NeverExpires:  b.NeverExpires,
		WorkspaceID:   b.WorkspaceID,
	}
}

type issuedTokenView struct {
	Token     string     `json:"token"`
	TokenID   uuid.UUID  `json:"tokenId"`
	Prefix    string     `json:"prefix"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	id, err := s.vault.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"userId": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		tokenOptionsBody
	}
	if !s.decode(w, r, &body) {
		return
	}
	tok, u, err := s.vault.Login(r.Context(), body.Email, body.Password, body.options())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token":     tok.Secret,
		"tokenId":   tok.ID,
		"prefix":    tok.Prefix,
		"expiresAt": tok.ExpiresAt,
		"userId":    u.ID,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	if ident.Static {
		s.writeJSON(w, http.StatusOK, map[string]any{"static": true})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"userId":      ident.UserID,
		"email":       ident.Email,
		"tokenId":     ident.TokenID,
		"workspaceId": ident.WorkspaceID,
	})
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	tokens, err := s.vault.ListTokens(r.Context(), ident.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, toTokenView(t))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tokens": views})
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	var body tokenOptionsBody
	if !s.decode(w, r, &body) {
		return
	}
	tok, err := s.vault.IssueToken(r.Context(), ident.UserID, body.options())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, issuedTokenView{
		Token:     tok.Secret,
		TokenID:   tok.ID,
		Prefix:    tok.Prefix,
		ExpiresAt: tok.ExpiresAt,
	})
}

func (s *Server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errs.ErrNotFound)
		return
	}
	switch err := s.vault.RevokeToken(r.Context(), ident.UserID, id); {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
	case errors.Is(err, errs.ErrAlreadyRevoked):
		s.writeJSON(w, http.StatusOK, map[string]any{"revoked": true, "alreadyRevoked": true})
	default:
		s.writeError(w, err)
	}
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	workspaces, err := s.vault.ListWorkspaces(r.Context(), ident.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]workspaceView, 0, len(workspaces))
	for _, ws := range workspaces {
		views = append(views, toWorkspaceView(ws))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"workspaces": views})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	var body struct {
		Name     string `json:"name"`
		BaseURL  string `json:"baseUrl"`
		Username string `json:"username"`
		Secret   string `json:"secret"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	ws, err := s.vault.CreateWorkspace(r.Context(), ident.UserID, body.Name, body.BaseURL, body.Username, body.Secret)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toWorkspaceView(*ws))
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFromCtx(r.Context())
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errs.ErrNotFound)
		return
	}
	if err := s.vault.DeleteWorkspace(r.Context(), ident.UserID, id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body; a malformed body is a validation failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, errs.ErrValidation)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to HTTP statuses. Authorization failures
// stay deliberately uninformative; configuration failures fail closed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, errs.ErrForbidden):
		s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, errs.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, errs.ErrAlreadyExists):
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	case errors.Is(err, errs.ErrNotConfigured):
		s.logger.Error("request failed on missing configuration", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server misconfigured"})
	default:
		s.logger.Error("internal error", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}
