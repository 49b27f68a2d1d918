package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Notes     *NoteHandler
	Passwords *PasswordHandler
	Files     *FileHandler
	Account   *AccountHandler
}

// NewRouter constructs and returns an HTTP handler that serves the vault
// API under /api and Prometheus metrics at /metrics.
//
// Middleware chain (applied in order):
//  1. AllowContentType: request bodies must be JSON or multipart/form-data
//  2. WithRequestLogging(logger)
//  3. TokenAuth(authn) on every route except register, login and OAuth
func NewRouter(h Handlers, authn middleware.Authenticator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/oauth/{provider}", h.Auth.OAuthStart)
		r.Get("/oauth/{provider}/callback", h.Auth.OAuthCallback)

		// Protected group: requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(authn))

			r.Post("/logout", h.Auth.Logout)
			r.Get("/profile", h.Auth.Profile)
			r.Post("/profile/code/shown", h.Auth.CodeShown)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", h.Notes.List)
				r.Post("/", h.Notes.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Notes.Get)
					r.Patch("/", h.Notes.Update)
					r.Delete("/", h.Notes.Delete)
					r.Post("/archive", h.Notes.Archive)
					r.Post("/unarchive", h.Notes.Unarchive)
					r.Post("/trash", h.Notes.Trash)
					r.Post("/restore", h.Notes.Restore)
				})
			})

			r.Route("/passwords", func(r chi.Router) {
				r.Get("/", h.Passwords.List)
				r.Post("/", h.Passwords.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", h.Passwords.Update)
					r.Delete("/", h.Passwords.Delete)
					r.Get("/reveal", h.Passwords.RevealState)
					r.Post("/reveal", h.Passwords.RequestReveal)
					r.Post("/reveal/verify", h.Passwords.VerifyReveal)
					r.Post("/reveal/cancel", h.Passwords.CancelReveal)
					r.Post("/hide", h.Passwords.Hide)
				})
			})

			r.Route("/files", func(r chi.Router) {
				r.Get("/", h.Files.List)
				r.Post("/", h.Files.Upload)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Files.Download)
					r.Patch("/", h.Files.Update)
					r.Delete("/", h.Files.Delete)
				})
			})

			r.Post("/account/delete", h.Account.Delete)
			r.Post("/account/delete/confirm", h.Account.Confirm)
			r.Post("/account/delete/cancel", h.Account.Cancel)
		})
	})

	return r
}
