package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palamut62/my-notes/internal/middleware"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/service"
	"github.com/palamut62/my-notes/internal/session"
)

// PasswordService defines the password and reveal operations required by
// PasswordHandler. Every call is scoped to the caller's session, which
// owns the reveal gates.
type PasswordService interface {
	List(ctx context.Context, sess *session.Session) ([]models.Password, error)
	Create(ctx context.Context, sess *session.Session, in models.PasswordInput) (*models.Password, error)
	Update(ctx context.Context, sess *session.Session, id string, upd models.PasswordUpdate) (*models.Password, error)
	Delete(ctx context.Context, sess *session.Session, id string) error
	RequestReveal(ctx context.Context, sess *session.Session, id string) (service.RevealStatus, error)
	VerifyReveal(ctx context.Context, sess *session.Session, id, code string) (*models.Password, error)
	CancelReveal(sess *session.Session, id string) service.RevealStatus
	Hide(sess *session.Session, id string) service.RevealStatus
	RevealState(sess *session.Session, id string) service.RevealStatus
}

// PasswordHandler handles /api/passwords.
type PasswordHandler struct {
	PasswordService PasswordService
}

// CodeRequest is the payload of a one-time code submission.
type CodeRequest struct {
	Code string `json:"code"`
}

// List handles GET /api/passwords. Secrets are only included for
// revealed entries.
func (h *PasswordHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.PasswordService.List(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Password{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/passwords.
func (h *PasswordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.PasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.PasswordService.Create(r.Context(), middleware.SessionFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/passwords/{id}.
func (h *PasswordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.PasswordUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	p, err := h.PasswordService.Update(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/passwords/{id}.
func (h *PasswordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.PasswordService.Delete(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevealState handles GET /api/passwords/{id}/reveal.
func (h *PasswordHandler) RevealState(w http.ResponseWriter, r *http.Request) {
	st := h.PasswordService.RevealState(middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, st)
}

// RequestReveal handles POST /api/passwords/{id}/reveal.
func (h *PasswordHandler) RequestReveal(w http.ResponseWriter, r *http.Request) {
	st, err := h.PasswordService.RequestReveal(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// VerifyReveal handles POST /api/passwords/{id}/reveal/verify. A wrong
// code answers 403 and leaves the prompt open.
func (h *PasswordHandler) VerifyReveal(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.PasswordService.VerifyReveal(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CancelReveal handles POST /api/passwords/{id}/reveal/cancel.
func (h *PasswordHandler) CancelReveal(w http.ResponseWriter, r *http.Request) {
	st := h.PasswordService.CancelReveal(middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, st)
}

// Hide handles POST /api/passwords/{id}/hide.
func (h *PasswordHandler) Hide(w http.ResponseWriter, r *http.Request) {
	st := h.PasswordService.Hide(middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, st)
}
