package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/service"
)

// IncorrectPasswordMessage is shown when re-authentication fails.
const IncorrectPasswordMessage = "Incorrect password. Please try again."

// writeError maps a service error to a status code and a short message.
// Unknown errors are reported as "internal error" without details.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnknownProvider):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, service.ErrIncorrectPassword):
		http.Error(w, IncorrectPasswordMessage, http.StatusUnauthorized)
	case errors.Is(err, service.ErrEmailTaken):
		http.Error(w, "user already exists", http.StatusConflict)
	case errors.Is(err, service.ErrFileExists):
		http.Error(w, "file already exists", http.StatusConflict)
	case errors.Is(err, gate.ErrInvalidCode):
		http.Error(w, gate.InvalidCodeMessage, http.StatusForbidden)
	case errors.Is(err, gate.ErrTooManyAttempts):
		http.Error(w, "too many attempts, try again later", http.StatusTooManyRequests)
	case errors.Is(err, gate.ErrNotAwaitingCode):
		http.Error(w, "verification was not requested", http.StatusConflict)
	case errors.Is(err, gate.ErrNoCode):
		http.Error(w, "no verification code available, sign in again", http.StatusConflict)
	case errors.Is(err, service.ErrDeletionIncomplete):
		http.Error(w, service.ErrDeletionIncomplete.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return false
	}
	return true
}
