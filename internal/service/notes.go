package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/validate"
)

// Defaults applied to new notes that leave the styling empty.
const (
	DefaultNoteBackground = "#ffffff"
	DefaultNoteFont       = "JetBrains Mono"
	DefaultNoteFontSize   = "16px"
)

// NoteRepository defines the persistence operations needed by NoteService.
// Every operation is scoped to the owning user.
type NoteRepository interface {
	// ListNotes returns the notes of userID in view, already ordered.
	ListNotes(ctx context.Context, userID string, view models.NoteView) ([]models.Note, error)
	// GetNote returns a single note with sealed content.
	GetNote(ctx context.Context, userID, id string) (*models.Note, error)
	// CreateNote inserts a note whose content is already sealed.
	CreateNote(ctx context.Context, n *models.Note) error
	// UpdateNote writes the editable fields and updated_at.
	UpdateNote(ctx context.Context, n *models.Note) error
	// SetArchivedAt archives (t != nil) or unarchives (t == nil) a note.
	SetArchivedAt(ctx context.Context, userID, id string, t *time.Time) error
	// SetDeletedAt trashes (t != nil) or restores (t == nil) a note.
	SetDeletedAt(ctx context.Context, userID, id string, t *time.Time) error
	// DeleteNote removes a note permanently.
	DeleteNote(ctx context.Context, userID, id string) error
}

// NoteService manages notes. Content is sealed before it reaches the
// repository and unsealed on the way out.
type NoteService struct {
	repo  NoteRepository
	codec Sealer
	log   *zap.Logger
	now   func() time.Time
}

// NewNoteService constructs a NoteService.
func NewNoteService(repo NoteRepository, codec Sealer, log *zap.Logger) *NoteService {
	return &NoteService{repo: repo, codec: codec, log: log, now: time.Now}
}

// List returns the notes of userID in view. Notes whose content cannot be
// decrypted are returned with empty content and Undecryptable set.
func (s *NoteService) List(ctx context.Context, userID string, view models.NoteView) ([]models.Note, error) {
	switch view {
	case models.ActiveNotes, models.ArchivedNotes, models.TrashedNotes:
	case "":
		view = models.ActiveNotes
	default:
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidInput, view)
	}

	notes, err := s.repo.ListNotes(ctx, userID, view)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		s.openNote(&notes[i])
	}
	return notes, nil
}

// Get returns one note.
func (s *NoteService) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	n, err := s.repo.GetNote(ctx, userID, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.openNote(n)
	return n, nil
}

// Create stores a new note for userID.
func (s *NoteService) Create(ctx context.Context, userID string, in models.NoteInput) (*models.Note, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	sealed, err := s.codec.Seal(in.Content, userID)
	if err != nil {
		return nil, fmt.Errorf("seal note: %w", err)
	}

	now := s.now().UTC()
	n := &models.Note{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           in.Title,
		Subtitle:        in.Subtitle,
		Content:         sealed,
		Category:        in.Category,
		Tags:            in.Tags,
		BackgroundColor: orDefault(in.BackgroundColor, DefaultNoteBackground),
		FontFamily:      orDefault(in.FontFamily, DefaultNoteFont),
		FontSize:        orDefault(in.FontSize, DefaultNoteFontSize),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}

	if err := s.repo.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	n.Content = in.Content
	return n, nil
}

// Update applies the non-nil fields of upd. Content is re-sealed only when
// it is part of the update.
func (s *NoteService) Update(ctx context.Context, userID, id string, upd models.NoteUpdate) (*models.Note, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := validate.Struct(upd); err != nil {
		return nil, invalid(err)
	}

	n, err := s.repo.GetNote(ctx, userID, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Subtitle != nil {
		n.Subtitle = *upd.Subtitle
	}
	if upd.Category != nil {
		n.Category = *upd.Category
	}
	if upd.Tags != nil {
		n.Tags = *upd.Tags
	}
	if upd.BackgroundColor != nil {
		n.BackgroundColor = *upd.BackgroundColor
	}
	if upd.FontFamily != nil {
		n.FontFamily = *upd.FontFamily
	}
	if upd.FontSize != nil {
		n.FontSize = *upd.FontSize
	}
	if upd.Content != nil {
		sealed, err := s.codec.Seal(*upd.Content, userID)
		if err != nil {
			return nil, fmt.Errorf("seal note: %w", err)
		}
		n.Content = sealed
	}
	n.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateNote(ctx, n); err != nil {
		return nil, mapRepoErr(err)
	}

	if upd.Content != nil {
		n.Content = *upd.Content
	} else {
		s.openNote(n)
	}
	return n, nil
}

// Archive moves a note to the archive.
func (s *NoteService) Archive(ctx context.Context, userID, id string) error {
	now := s.now().UTC()
	return mapRepoErr(s.repo.SetArchivedAt(ctx, userID, id, &now))
}

// Unarchive brings an archived note back to the active list.
func (s *NoteService) Unarchive(ctx context.Context, userID, id string) error {
	return mapRepoErr(s.repo.SetArchivedAt(ctx, userID, id, nil))
}

// MoveToTrash moves a note to the trash.
func (s *NoteService) MoveToTrash(ctx context.Context, userID, id string) error {
	now := s.now().UTC()
	return mapRepoErr(s.repo.SetDeletedAt(ctx, userID, id, &now))
}

// Restore takes a note out of the trash.
func (s *NoteService) Restore(ctx context.Context, userID, id string) error {
	return mapRepoErr(s.repo.SetDeletedAt(ctx, userID, id, nil))
}

// DeletePermanently removes a note for good.
func (s *NoteService) DeletePermanently(ctx context.Context, userID, id string) error {
	return mapRepoErr(s.repo.DeleteNote(ctx, userID, id))
}

func (s *NoteService) openNote(n *models.Note) {
	plain, ok := open(s.codec, s.log, "note", n.ID, n.Content, n.UserID)
	n.Content = plain
	n.Undecryptable = !ok
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
