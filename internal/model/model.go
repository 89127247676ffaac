// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents an account stored in the vault. The password is kept only
// as an Argon2id hash with a per-user salt.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, normalized lowercase
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user auth salt
	CreatedAt time.Time
}

// Token is a bearer token record. The secret itself is never persisted; only
// its SHA-256 hash and a short display prefix are stored.
type Token struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SecretHash  []byte     // SHA-256 of the full secret string
	Prefix      string     // first characters of the secret, for display
	Name        string
	WorkspaceID *uuid.UUID // optional scope; nil = unscoped
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time // nil = never expires
	RevokedAt   *time.Time // once set, permanent
}

// Usable reports whether the token may still authenticate at the given time.
func (t *Token) Usable(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

// Workspace is a per-user bundle of ticketing backend credentials. The backend
// secret is stored AEAD-encrypted; SecretEnc and Nonce together decrypt to the
// plaintext only with the deployment encryption key.
type Workspace struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string // unique per owner
	BaseURL    string // normalized: scheme+host only
	Username   string
	SecretEnc  []byte // XChaCha20-Poly1305 ciphertext
	Nonce      []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
}

// BackendCredentials is the decrypted credential triple handed to the session
// layer. Never persisted.
type BackendCredentials struct {
	BaseURL  string
	Username string
	Secret   string
}

// Identity is the immutable identity context constructed once at the trust
// boundary (edge authentication) and threaded through every downstream call.
// Static identities (shared gateway secret) have only Static set.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	TokenID     uuid.UUID
	WorkspaceID *uuid.UUID
	Static      bool
}

// Partition names the session actor this identity's protocol traffic is
// routed to: the bound workspace if any, otherwise the shared default.
func (id Identity) Partition() string {
	if id.WorkspaceID != nil {
		return id.WorkspaceID.String()
	}
	return "default"
}

// IssuedToken is returned exactly once from token issuance: Secret is the
// plaintext bearer secret and cannot be recovered afterwards.
type IssuedToken struct {
	ID        uuid.UUID
	Secret    string
	Prefix    string
	ExpiresAt *time.Time
}

// TokenOptions controls token issuance.
type TokenOptions struct {
	Name          string
	ExpiresInDays *int       // nil = default 30; clamped to [1,365]; 0 = never
	NeverExpires  bool       // wins over ExpiresInDays
	WorkspaceID   *uuid.UUID // optional scope, must belong to the issuing user
}
