package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/and161185/ticketgate/internal/crypto"
	"github.com/and161185/ticketgate/internal/errs"
	"github.com/and161185/ticketgate/internal/model"
)

type ctxKey string

const identityKey ctxKey = "tg.identity"

// withIdentity stores the authenticated identity in the request context. It
// is constructed exactly once at this trust boundary and treated as
// immutable downstream.
func withIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFromCtx fetches the authenticated identity.
func identityFromCtx(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// bearerToken extracts the caller credential from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// authenticate resolves the caller credential to an identity: a configured
// static secret yields an unscoped static identity with no vault lookup,
// anything else goes through token validation.
func (s *Server) authenticate(r *http.Request) (model.Identity, error) {
	secret := bearerToken(r)
	if secret == "" {
		return model.Identity{}, errs.ErrUnauthorized
	}
	for _, static := range s.staticSecrets {
		if crypto.EqualSecret(secret, static) {
			return model.Identity{Static: true}, nil
		}
	}
	return s.vault.ValidateToken(r.Context(), secret)
}

// requireAuth guards the account API: it authenticates the bearer and
// stores the identity in the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, errs.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
	})
}

// requireUser additionally rejects static identities: token and workspace
// operations are scoped to a vault user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identityFromCtx(r.Context())
		if ident.Static {
			s.writeError(w, errs.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
