package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/objectstore"
	"github.com/palamut62/my-notes/internal/repository"
	"github.com/palamut62/my-notes/internal/validate"
)

// FileRepository defines the persistence operations needed by FileService.
type FileRepository interface {
	ListFiles(ctx context.Context, userID string) ([]models.File, error)
	GetFile(ctx context.Context, userID, id string) (*models.File, error)
	CreateFile(ctx context.Context, f *models.File) error
	UpdateFile(ctx context.Context, f *models.File) error
	DeleteFile(ctx context.Context, userID, id string) error
}

// Upload describes one uploaded file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
	Category    string
	Notes       string
}

// FileService keeps file contents in the object store and their metadata
// in the repository.
type FileService struct {
	repo  FileRepository
	store objectstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewFileService constructs a FileService.
func NewFileService(repo FileRepository, store objectstore.Store, log *zap.Logger) *FileService {
	return &FileService{repo: repo, store: store, log: log, now: time.Now}
}

// ObjectKey is where the contents of name uploaded by userID live.
func ObjectKey(userID, name string) string {
	return userID + "/" + name
}

func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") || path.Base(name) != name {
		return "", fmt.Errorf("%w: invalid file name", ErrInvalidInput)
	}
	return name, nil
}

// Upload stores the contents first and then the metadata. If the metadata
// cannot be stored the uploaded object is removed again.
func (s *FileService) Upload(ctx context.Context, userID string, up Upload) (*models.File, error) {
	name, err := cleanFileName(up.Name)
	if err != nil {
		return nil, err
	}
	if len(up.Category) > 100 {
		return nil, fmt.Errorf("%w: field 'category' must be at most 100 characters long", ErrInvalidInput)
	}

	key := ObjectKey(userID, name)
	if err := s.store.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		if errors.Is(err, objectstore.ErrExists) {
			return nil, ErrFileExists
		}
		return nil, fmt.Errorf("upload object: %w", err)
	}

	now := s.now().UTC()
	f := &models.File{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      up.ContentType,
		Size:      up.Size,
		Path:      key,
		Category:  up.Category,
		Notes:     up.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateFile(ctx, f); err != nil {
		if rmErr := s.store.Delete(ctx, key); rmErr != nil {
			s.log.Error("Failed to remove orphaned upload", zap.String("key", key), zap.Error(rmErr))
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrFileExists
		}
		return nil, fmt.Errorf("save file metadata: %w", err)
	}
	return f, nil
}

// List returns the files of userID, newest first.
func (s *FileService) List(ctx context.Context, userID string) ([]models.File, error) {
	return s.repo.ListFiles(ctx, userID)
}

// Download opens the contents of a file. The caller closes the reader.
func (s *FileService) Download(ctx context.Context, userID, id string) (*models.File, io.ReadCloser, error) {
	f, err := s.repo.GetFile(ctx, userID, id)
	if err != nil {
		return nil, nil, mapRepoErr(err)
	}
	rc, err := s.store.Get(ctx, f.Path)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("download object: %w", err)
	}
	return f, rc, nil
}

// Update changes the category or notes of a file.
func (s *FileService) Update(ctx context.Context, userID, id string, upd models.FileUpdate) (*models.File, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := validate.Struct(upd); err != nil {
		return nil, invalid(err)
	}

	f, err := s.repo.GetFile(ctx, userID, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if upd.Category != nil {
		f.Category = *upd.Category
	}
	if upd.Notes != nil {
		f.Notes = *upd.Notes
	}
	f.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateFile(ctx, f); err != nil {
		return nil, mapRepoErr(err)
	}
	return f, nil
}

// Delete removes the object and then its metadata.
func (s *FileService) Delete(ctx context.Context, userID, id string) error {
	f, err := s.repo.GetFile(ctx, userID, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.store.Delete(ctx, f.Path); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return mapRepoErr(s.repo.DeleteFile(ctx, userID, id))
}
