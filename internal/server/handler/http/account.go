package http

import (
	"context"
	"net/http"

	"github.com/palamut62/my-notes/internal/middleware"
	"github.com/palamut62/my-notes/internal/session"
)

// AccountService defines the account deletion operations required by
// AccountHandler.
type AccountService interface {
	// BeginDeletion re-checks the password and returns the code to show.
	BeginDeletion(ctx context.Context, sess *session.Session, password string) (string, error)
	// ConfirmDeletion checks the code and runs the deletion.
	ConfirmDeletion(ctx context.Context, sess *session.Session, code string) error
	CancelDeletion(sess *session.Session)
}

// AccountHandler handles /api/account.
type AccountHandler struct {
	AccountService AccountService
}

// DeleteRequest is the payload that starts an account deletion.
type DeleteRequest struct {
	Password string `json:"password"`
}

// DeleteResponse carries the code the user has to type back.
type DeleteResponse struct {
	Code string `json:"code"`
}

// Delete handles POST /api/account/delete.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := h.AccountService.BeginDeletion(r.Context(), middleware.SessionFromContext(r.Context()), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Code: code})
}

// Confirm handles POST /api/account/delete/confirm. On success every
// session of the user is gone and the client must sign out locally.
func (h *AccountHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.AccountService.ConfirmDeletion(r.Context(), middleware.SessionFromContext(r.Context()), req.Code); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /api/account/delete/cancel.
func (h *AccountHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.AccountService.CancelDeletion(middleware.SessionFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
