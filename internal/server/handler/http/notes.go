package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palamut62/my-notes/internal/middleware"
	"github.com/palamut62/my-notes/internal/models"
)

// NoteService defines the note operations required by NoteHandler.
type NoteService interface {
	List(ctx context.Context, userID string, view models.NoteView) ([]models.Note, error)
	Get(ctx context.Context, userID, id string) (*models.Note, error)
	Create(ctx context.Context, userID string, in models.NoteInput) (*models.Note, error)
	Update(ctx context.Context, userID, id string, upd models.NoteUpdate) (*models.Note, error)
	Archive(ctx context.Context, userID, id string) error
	Unarchive(ctx context.Context, userID, id string) error
	MoveToTrash(ctx context.Context, userID, id string) error
	Restore(ctx context.Context, userID, id string) error
	DeletePermanently(ctx context.Context, userID, id string) error
}

// NoteHandler handles /api/notes.
type NoteHandler struct {
	NoteService NoteService
}

// List handles GET /api/notes?view=active|archived|trash.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	view := models.NoteView(r.URL.Query().Get("view"))
	notes, err := h.NoteService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), view)
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.NoteService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.NoteService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// Update handles PATCH /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.NoteUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	n, err := h.NoteService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(h.NoteService.DeletePermanently)(w, r)
}

// Archive handles POST /api/notes/{id}/archive.
func (h *NoteHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(h.NoteService.Archive)(w, r)
}

// Unarchive handles POST /api/notes/{id}/unarchive.
func (h *NoteHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(h.NoteService.Unarchive)(w, r)
}

// Trash handles POST /api/notes/{id}/trash.
func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(h.NoteService.MoveToTrash)(w, r)
}

// Restore handles POST /api/notes/{id}/restore.
func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(h.NoteService.Restore)(w, r)
}

func (h *NoteHandler) lifecycle(op func(ctx context.Context, userID, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
