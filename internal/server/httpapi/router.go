// Package httpapi is the stateless edge of the gateway: it authenticates
// external callers against the vault, serves the account/token/workspace
// API and forwards signed protocol requests to session actor partitions.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/ticketgate/internal/session"
	"github.com/and161185/ticketgate/internal/sign"
	"github.com/and161185/ticketgate/internal/vault"
)

// Config carries the edge deployment settings.
type Config struct {
	// StaticSecrets are shared gateway secrets accepted as unscoped static
	// identities without a vault lookup.
	StaticSecrets []string
	// AllowedOrigins is the exact-match CORS allowlist.
	AllowedOrigins []string
}

// Server wires the vault and session hub into HTTP handlers.
type Server struct {
	vault         *vault.Vault
	hub           *session.Hub
	signer        *sign.Signer
	logger        *zap.Logger
	staticSecrets []string
	origins       []string
}

// NewServer constructs the edge server.
func NewServer(v *vault.Vault, hub *session.Hub, signer *sign.Signer, logger *zap.Logger, cfg Config) *Server {
	return &Server{
		vault:         v,
		hub:           hub,
		signer:        signer,
		logger:        logger,
		staticSecrets: cfg.StaticSecrets,
		origins:       cfg.AllowedOrigins,
	}
}

// Routes assembles the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(RequestLogger(s.logger))
	r.Use(CORS(s.origins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.With(s.requireAuth).Get("/me", s.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/tokens", s.handleListTokens)
			r.Post("/tokens", s.handleCreateToken)
			r.Delete("/tokens/{id}", s.handleRevokeToken)
			r.Get("/workspaces", s.handleListWorkspaces)
			r.Post("/workspaces", s.handleCreateWorkspace)
			r.Delete("/workspaces/{id}", s.handleDeleteWorkspace)
		})
	})

	r.Post("/mcp", s.handleProtocol)
	r.Delete("/mcp", s.handleProtocol)

	return r
}
