// Package session implements the stateful half of the gateway: one actor
// per partition name, each serializing all work against its in-memory
// session table. The table is process-local; a restart silently discards
// every session and clients re-initialize.
package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ticketgate/internal/mcp"
	"github.com/and161185/ticketgate/internal/model"
	"github.com/and161185/ticketgate/internal/sign"
)

// Config carries the collaborators every actor shares.
type Config struct {
	Signer     *sign.Signer
	Logger     *zap.Logger
	ServerInfo mcp.ServerInfo
	// NewTools builds the tool set for a freshly bound backend credential
	// triple; called once per handshake.
	NewTools func(creds model.BackendCredentials) []mcp.Tool
}

// Session is one handshake-initialized protocol conversation. The ownership
// tuple is captured at creation and never changes.
type Session struct {
	ID        string
	Owner     model.Identity
	Transport *mcp.Transport
	CreatedAt time.Time
}

// Actor serializes all protocol traffic for one partition. The session map
// is mutated without further synchronization: mu is the single-threaded
// inbox equivalent, held for the full duration of every request.
type Actor struct {
	name string
	cfg  Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewActor constructs the actor for a partition name.
func NewActor(name string, cfg Config) *Actor {
	return &Actor{name: name, cfg: cfg, sessions: make(map[string]*Session)}
}

// Handle processes one already-forwarded internal request. Signature
// verification runs before any other logic; a failure there is terminal.
func (a *Actor) Handle(w http.ResponseWriter, r *http.Request, body []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.cfg.Signer.Verify(r, body); err != nil {
		a.cfg.Logger.Warn("rejected unsigned request",
			zap.String("partition", a.name), zap.Error(err))
		writeProtocolError(w, http.StatusUnauthorized, nil, mcp.CodeUnauthorized, "unauthorized")
		return
	}

	ident := sign.IdentityFrom(r.Header)
	sid := r.Header.Get(sign.HeaderSessionID)
	if sid == "" {
		sid = r.URL.Query().Get("sessionId")
	}

	if sid != "" {
		a.handleExisting(w, r, body, ident, sid)
		return
	}
	a.handleInitialize(w, r, body, ident)
}

// handleExisting routes a request carrying a session id.
func (a *Actor) handleExisting(w http.ResponseWriter, r *http.Request, body []byte, ident model.Identity, sid string) {
	sess, ok := a.sessions[sid]
	if !ok {
		writeProtocolError(w, http.StatusNotFound, nil, mcp.CodeUnknownSession,
			"unknown or expired session; re-initialize")
		return
	}
	if !ownershipMatches(sess.Owner, ident) {
		writeProtocolError(w, http.StatusForbidden, nil, mcp.CodeUnauthorized, "forbidden")
		return
	}

	if r.Method == http.MethodDelete {
		sess.Transport.Close()
		delete(a.sessions, sid)
		a.cfg.Logger.Info("session closed",
			zap.String("partition", a.name), zap.String("session", sid))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	req, perr := mcp.ParseRequest(body)
	if perr != nil {
		writeResponse(w, http.StatusBadRequest, mcp.NewErrorResponse(nil, perr))
		return
	}
	resp := sess.Transport.Handle(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeResponse(w, http.StatusOK, resp)
}

// handleInitialize processes the only request allowed without a session id:
// the protocol handshake.
func (a *Actor) handleInitialize(w http.ResponseWriter, r *http.Request, body []byte, ident model.Identity) {
	if r.Method != http.MethodPost {
		writeProtocolError(w, http.StatusBadRequest, nil, mcp.CodeInvalidRequest, "session id required")
		return
	}
	req, perr := mcp.ParseRequest(body)
	if perr != nil {
		writeResponse(w, http.StatusBadRequest, mcp.NewErrorResponse(nil, perr))
		return
	}
	if req.Method != mcp.MethodInitialize {
		writeProtocolError(w, http.StatusBadRequest, req, mcp.CodeInvalidRequest,
			"no active session; send initialize first")
		return
	}

	creds := backendCredentialsFrom(r)
	if creds.BaseURL == "" || creds.Username == "" || creds.Secret == "" {
		writeProtocolError(w, http.StatusBadRequest, req, mcp.CodeInvalidParams,
			"backend credentials required")
		return
	}

	transport := mcp.NewTransport(a.cfg.ServerInfo, a.cfg.NewTools(creds), nil)
	resp := transport.Handle(r.Context(), req)

	sid := uuid.Must(uuid.NewV4()).String()
	a.sessions[sid] = &Session{
		ID:        sid,
		Owner:     ident,
		Transport: transport,
		CreatedAt: time.Now(),
	}
	a.cfg.Logger.Info("session created",
		zap.String("partition", a.name), zap.String("session", sid))

	w.Header().Set(sign.HeaderSessionID, sid)
	writeResponse(w, http.StatusOK, resp)
}

// backendCredentialsFrom reads the triple from signed headers, falling back
// to query parameters (both forms are covered by the signature).
func backendCredentialsFrom(r *http.Request) model.BackendCredentials {
	creds := sign.BackendCredentialsFrom(r.Header)
	q := r.URL.Query()
	if creds.BaseURL == "" {
		creds.BaseURL = q.Get("backendUrl")
	}
	if creds.Username == "" {
		creds.Username = q.Get("backendUsername")
	}
	if creds.Secret == "" {
		creds.Secret = q.Get("backendSecret")
	}
	return creds
}

// ownershipMatches compares the request's identity claims against the tuple
// captured at session creation. Only populated stored fields are checked.
func ownershipMatches(stored, req model.Identity) bool {
	if stored.UserID != uuid.Nil && stored.UserID != req.UserID {
		return false
	}
	if stored.Email != "" && stored.Email != req.Email {
		return false
	}
	if stored.TokenID != uuid.Nil && stored.TokenID != req.TokenID {
		return false
	}
	if stored.WorkspaceID != nil && (req.WorkspaceID == nil || *stored.WorkspaceID != *req.WorkspaceID) {
		return false
	}
	return true
}

// SessionCount reports the size of the in-memory table (diagnostics).
func (a *Actor) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

func writeProtocolError(w http.ResponseWriter, status int, req *mcp.Request, code int, msg string) {
	writeResponse(w, status, mcp.NewErrorResponse(req, &mcp.Error{Code: code, Message: msg}))
}

func writeResponse(w http.ResponseWriter, status int, resp *mcp.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
