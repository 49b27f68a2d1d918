package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/palamut62/my-notes/internal/middleware"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/service"
)

// MaxUploadMemory is how much of a multipart upload is kept in memory;
// the rest spills to temporary files.
const MaxUploadMemory = 32 << 20

// FileService defines the file operations required by FileHandler.
type FileService interface {
	Upload(ctx context.Context, userID string, up service.Upload) (*models.File, error)
	List(ctx context.Context, userID string) ([]models.File, error)
	Download(ctx context.Context, userID, id string) (*models.File, io.ReadCloser, error)
	Update(ctx context.Context, userID, id string, upd models.FileUpdate) (*models.File, error)
	Delete(ctx context.Context, userID, id string) error
}

// FileHandler handles /api/files.
type FileHandler struct {
	FileService FileService
}

// List handles GET /api/files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.FileService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []models.File{}
	}
	writeJSON(w, http.StatusOK, files)
}

// Upload handles POST /api/files. The body is multipart/form-data with a
// "file" part and optional "category" and "notes" fields.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadMemory); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := h.FileService.Upload(r.Context(), middleware.GetUserIDFromContext(r.Context()), service.Upload{
		Name:        hdr.Filename,
		ContentType: contentType,
		Size:        hdr.Size,
		Body:        f,
		Category:    r.FormValue("category"),
		Notes:       r.FormValue("notes"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

// Download handles GET /api/files/{id} by streaming the object.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	file, body, err := h.FileService.Download(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.Type)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	_, _ = io.Copy(w, body)
}

// Update handles PATCH /api/files/{id}.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.FileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	file, err := h.FileService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// Delete handles DELETE /api/files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.FileService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
