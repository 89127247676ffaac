// Package vault implements the credential vault: user accounts, bearer
// tokens and encrypted per-workspace backend credentials.
package vault

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/ticketgate/internal/crypto"
	"github.com/and161185/ticketgate/internal/crypto/secretbox"
	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
	"github.com/and161185/ticketgate/internal/repository"
)

const (
	minPasswordLen = 10
	minSecretLen   = 8
	maxNameLen     = 100

	defaultExpiryDays = 30
	maxExpiryDays     = 365
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Vault owns password hashing, token issuance/validation/revocation and
// workspace credential encryption.
type Vault struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	workspaces repository.WorkspaceRepository
	box        *secretbox.Box
	now        func() time.Time
}

// New constructs a Vault. box may be nil when no encryption key is
// configured; workspace credential operations then fail closed.
func New(users repository.UserRepository, tokens repository.TokenRepository,
	workspaces repository.WorkspaceRepository, box *secretbox.Box) *Vault {
	return &Vault{users: users, tokens: tokens, workspaces: workspaces, box: box, now: time.Now}
}

// WithClock overrides the time source (tests only).
func (v *Vault) WithClock(now func() time.Time) *Vault {
	cp := *v
	cp.now = now
	return &cp
}

// Register creates a new user account. The returned id is the only output;
// neither the password nor its hash ever leaves the vault.
func (v *Vault) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if !emailRe.MatchString(email) {
		return uuid.Nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return uuid.Nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, minPasswordLen)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return uuid.Nil, err
	}

	u := &model.User{
		ID:      id,
		Email:   email,
		PwdHash: pkgcrypto.HashPassword(password, salt),
		Salt:    salt,
	}
	if err := v.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Login authenticates by email and password and, on success, issues a fresh
// bearer token. A wrong email and a wrong password are indistinguishable.
func (v *Vault) Login(ctx context.Context, email, password string, opts model.TokenOptions) (*model.IssuedToken, *model.User, error) {
	u, err := v.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || !pkgcrypto.VerifyPassword(password, u.Salt, u.PwdHash) {
		return nil, nil, errs.ErrUnauthorized
	}
	tok, err := v.IssueToken(ctx, u.ID, opts)
	if err != nil {
		return nil, nil, err
	}
	return tok, u, nil
}

// IssueToken mints a new bearer token for userID. The plaintext secret is
// returned exactly once; only its hash is persisted.
func (v *Vault) IssueToken(ctx context.Context, userID uuid.UUID, opts model.TokenOptions) (*model.IssuedToken, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "login"
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name too long", errs.ErrValidation)
	}
	if opts.WorkspaceID != nil {
		// Scope must belong to the issuing user.
		if _, err := v.workspaces.GetByID(ctx, userID, *opts.WorkspaceID); err != nil {
			return nil, err
		}
	}

	secret, prefix, hash, err := pkgcrypto.NewTokenSecret()
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	t := &model.Token{
		ID:          id,
		UserID:      userID,
		SecretHash:  hash,
		Prefix:      prefix,
		Name:        name,
		WorkspaceID: opts.WorkspaceID,
		ExpiresAt:   v.expiryFrom(opts),
	}
	if err := v.tokens.Create(ctx, t); err != nil {
		return nil, err
	}
	return &model.IssuedToken{ID: id, Secret: secret, Prefix: prefix, ExpiresAt: t.ExpiresAt}, nil
}

// expiryFrom computes expires_at: nil for never-expiring tokens, otherwise
// now plus the clamped day count (default 30).
func (v *Vault) expiryFrom(opts model.TokenOptions) *time.Time {
	if opts.NeverExpires {
		return nil
	}
	days := defaultExpiryDays
	if opts.ExpiresInDays != nil {
		if *opts.ExpiresInDays == 0 {
			return nil
		}
		days = *opts.ExpiresInDays
		if days < 1 {
			days = 1
		}
		if days > maxExpiryDays {
			days = maxExpiryDays
		}
	}
	exp := v.now().Add(time.Duration(days) * 24 * time.Hour)
	return &exp
}

// ValidateToken resolves a bearer secret to an identity context. Wrong
// secret, revoked and expired tokens all fail identically.
func (v *Vault) ValidateToken(ctx context.Context, secret string) (model.Identity, error) {
	now := v.now()
	t, err := v.tokens.GetUsableByHash(ctx, pkgcrypto.HashTokenSecret(secret), now)
	if err != nil {
		return model.Identity{}, errs.ErrUnauthorized
	}
	u, err := v.users.GetByID(ctx, t.UserID)
	if err != nil {
		return model.Identity{}, errs.ErrUnauthorized
	}
	_ = v.tokens.TouchLastUsed(ctx, t.ID, now) // best-effort

	return model.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		TokenID:     t.ID,
		WorkspaceID: t.WorkspaceID,
	}, nil
}

// ListTokens returns the caller's own tokens.
func (v *Vault) ListTokens(ctx context.Context, userID uuid.UUID) ([]model.Token, error) {
	return v.tokens.ListByUser(ctx, userID)
}

// RevokeToken permanently revokes one of the caller's tokens. Repeated
// revocation reports errs.ErrAlreadyRevoked rather than erroring.
func (v *Vault) RevokeToken(ctx context.Context, userID, tokenID uuid.UUID) error {
	return v.tokens.Revoke(ctx, userID, tokenID, v.now())
}

// CreateWorkspace validates and stores a backend credential bundle. The
// secret is encrypted before it is persisted; creation fails closed when no
// encryption key is configured.
func (v *Vault) CreateWorkspace(ctx context.Context, userID uuid.UUID, name, baseURL, username, secret string) (*model.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: workspace name must be 1..%d characters", errs.ErrValidation, maxNameLen)
	}
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	username = normalizeEmail(username)
	if !emailRe.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be an email address", errs.ErrValidation)
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("%w: secret must be at least %d characters", errs.ErrValidation, minSecretLen)
	}

	ciphertext, nonce, err := v.box.Seal([]byte(secret))
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	w := &model.Workspace{
		ID:        id,
		UserID:    userID,
		Name:      name,
		BaseURL:   normalized,
		Username:  username,
		SecretEnc: ciphertext,
		Nonce:     nonce,
	}
	if err := v.workspaces.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorkspaces returns the caller's own workspaces.
func (v *Vault) ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error) {
	return v.workspaces.ListByUser(ctx, userID)
}

// GetWorkspaceCredentials decrypts the stored backend secret for an owned
// workspace. Missing key, missing record, wrong owner and decryption failure
// are indistinguishable to the caller.
func (v *Vault) GetWorkspaceCredentials(ctx context.Context, userID, workspaceID uuid.UUID) (*model.BackendCredentials, error) {
	w, err := v.workspaces.GetByID(ctx, userID, workspaceID)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	plaintext, err := v.box.Open(w.SecretEnc, w.Nonce)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	_ = v.workspaces.TouchLastUsed(ctx, w.ID, v.now()) // best-effort

	return &model.BackendCredentials{
		BaseURL:  w.BaseURL,
		Username: w.Username,
		Secret:   string(plaintext),
	}, nil
}

// DeleteWorkspace revokes every active token scoped to the workspace and
// deletes it, revocation ordered first inside one transaction.
func (v *Vault) DeleteWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	return v.workspaces.DeleteCascade(ctx, userID, workspaceID, v.now())
}

// NormalizeBaseURL validates a backend base URL and reduces it to
// scheme://host, stripping path, query and fragment.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: base url must be http(s) with a host", errs.ErrValidation)
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
