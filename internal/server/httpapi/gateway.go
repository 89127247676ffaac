package httpapi

import (
	"io"
	"net/http"

	"github.com/and161185/ticketgate/internal/mcp"
	"github.com/and161185/ticketgate/internal/sign"
)

// Per-call backend credential headers a caller may supply when it is not
// using a vault-scoped token.
const (
	extBackendURL      = "X-Backend-Url"
	extBackendUsername = "X-Backend-Username"
	extBackendSecret   = "X-Backend-Secret"
)

// maxProtocolBody bounds an inbound protocol message.
const maxProtocolBody = 1 << 20

// handleProtocol is the edge half of the protocol endpoint: authenticate
// the external caller, resolve backend credentials, then sign and dispatch
// to the right session actor partition.
func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request) {
	sign.Strip(r.Header)

	ident, err := s.authenticate(r)
	if err != nil {
		s.writeProtocolUnauthorized(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxProtocolBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest,
			mcp.NewErrorResponse(nil, &mcp.Error{Code: mcp.CodeInvalidRequest, Message: "unreadable body"}))
		return
	}

	// Rebuild the internal request from scratch: nothing the caller sent can
	// reach the actor except what is explicitly copied here.
	fwd, err := http.NewRequestWithContext(r.Context(), r.Method, r.URL.String(), nil)
	if err != nil {
		s.writeProtocolUnauthorized(w)
		return
	}
	if sid := r.Header.Get(sign.HeaderSessionID); sid != "" {
		fwd.Header.Set(sign.HeaderSessionID, sid)
	}
	sign.SetIdentity(fwd.Header, ident)

	// A workspace-bound identity resolves credentials from the vault; a
	// stale or deleted scope is indistinguishable from never having access.
	if ident.WorkspaceID != nil {
		creds, err := s.vault.GetWorkspaceCredentials(r.Context(), ident.UserID, *ident.WorkspaceID)
		if err != nil {
			s.writeProtocolUnauthorized(w)
			return
		}
		sign.SetBackendCredentials(fwd.Header, *creds)
	} else if url := r.Header.Get(extBackendURL); url != "" {
		fwd.Header.Set(sign.HeaderBackendURL, url)
		fwd.Header.Set(sign.HeaderBackendUsername, r.Header.Get(extBackendUsername))
		fwd.Header.Set(sign.HeaderBackendSecret, r.Header.Get(extBackendSecret))
	}

	s.signer.Sign(fwd, body)
	s.hub.Get(ident.Partition()).Handle(w, fwd, body)
}

// writeProtocolUnauthorized emits the protocol-layer error object alongside
// the HTTP status so protocol-aware clients see uniform failures.
func (s *Server) writeProtocolUnauthorized(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusUnauthorized,
		mcp.NewErrorResponse(nil, &mcp.Error{Code: mcp.CodeUnauthorized, Message: "unauthorized"}))
}
