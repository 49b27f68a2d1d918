// Package http provides the HTTP handlers of the vault API: accounts,
// notes, passwords with their reveal flow, files and account deletion.
package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palamut62/my-notes/internal/middleware"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/service"
	"github.com/palamut62/my-notes/internal/session"
)

const stateCookie = "oauth_state"

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// SignUp registers an email/password account.
	SignUp(ctx context.Context, creds models.Credentials) (*models.User, error)
	// SignIn checks the password and opens a session.
	SignIn(ctx context.Context, creds models.Credentials) (*service.LoginResult, error)
	// OAuthURL returns the provider's consent page carrying state.
	OAuthURL(provider, state string) (string, error)
	// SignInOAuth completes an OAuth sign-in with the callback code.
	SignInOAuth(ctx context.Context, provider, code string) (*service.LoginResult, error)
	// SignOut ends the session.
	SignOut(sess *session.Session)
	// Profile reports the one-time code status of the session's user.
	Profile(ctx context.Context, sess *session.Session) (*service.ProfileStatus, error)
	// MarkCodeShown records that the one-time code was displayed.
	MarkCodeShown(ctx context.Context, userID string) error
}

// AuthHandler handles account, session and profile requests.
type AuthHandler struct {
	AuthService AuthService
	// SecureCookies marks the OAuth state cookie Secure. Set it when
	// serving over TLS.
	SecureCookies bool
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	u, err := h.AuthService.SignUp(r.Context(), creds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/login. The response carries the session token
// and, until acknowledged, the one-time code.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	res, err := h.AuthService.SignIn(r.Context(), creds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.AuthService.SignOut(middleware.SessionFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// OAuthStart handles GET /api/oauth/{provider} by redirecting to the
// provider with a fresh state that is also kept in a cookie.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	url, err := h.AuthService.OAuthURL(chi.URLParam(r, "provider"), state)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/oauth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback handles GET /api/oauth/{provider}/callback.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/oauth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	res, err := h.AuthService.SignInOAuth(r.Context(), chi.URLParam(r, "provider"), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Profile handles GET /api/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	st, err := h.AuthService.Profile(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CodeShown handles POST /api/profile/code/shown.
func (h *AuthHandler) CodeShown(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.MarkCodeShown(r.Context(), middleware.GetUserIDFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
