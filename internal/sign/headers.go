package sign

import (
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ticketgate/internal/model"
)

// SetIdentity writes the identity claims resolved at the edge into the
// internal headers covered by the signature.
func SetIdentity(h http.Header, id model.Identity) {
	if id.UserID != uuid.Nil {
		h.Set(HeaderUserID, id.UserID.String())
	}
	if id.Email != "" {
		h.Set(HeaderUserEmail, id.Email)
	}
	if id.TokenID != uuid.Nil {
		h.Set(HeaderTokenID, id.TokenID.String())
	}
	if id.WorkspaceID != nil {
		h.Set(HeaderWorkspaceID, id.WorkspaceID.String())
	}
}

// IdentityFrom reconstructs the identity claims on the actor side. The
// caller must have verified the signature first; these headers are
// meaningless on an unverified request.
func IdentityFrom(h http.Header) model.Identity {
	var id model.Identity
	if v, err := uuid.FromString(h.Get(HeaderUserID)); err == nil {
		id.UserID = v
	}
	id.Email = h.Get(HeaderUserEmail)
	if v, err := uuid.FromString(h.Get(HeaderTokenID)); err == nil {
		id.TokenID = v
	}
	if v, err := uuid.FromString(h.Get(HeaderWorkspaceID)); err == nil {
		id.WorkspaceID = &v
	}
	id.Static = id.UserID == uuid.Nil
	return id
}

// SetBackendCredentials writes the resolved backend credential triple into
// the internal headers covered by the signature.
func SetBackendCredentials(h http.Header, c model.BackendCredentials) {
	h.Set(HeaderBackendURL, c.BaseURL)
	h.Set(HeaderBackendUsername, c.Username)
	h.Set(HeaderBackendSecret, c.Secret)
}

// BackendCredentialsFrom reads the credential triple on the actor side.
func BackendCredentialsFrom(h http.Header) model.BackendCredentials {
	return model.BackendCredentials{
		BaseURL:  h.Get(HeaderBackendURL),
		Username: h.Get(HeaderBackendUsername),
		Secret:   h.Get(HeaderBackendSecret),
	}
}
