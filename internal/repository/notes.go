package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/palamut62/my-notes/internal/models"
)

const noteColumns = `id, user_id, title, subtitle, content, category, tags, background_color, font_family, font_size, created_at, updated_at, archived_at, deleted_at`

// noteViews holds the filter and order of every list view.
var noteViews = map[models.NoteView]string{
	models.ActiveNotes:   `archived_at IS NULL AND deleted_at IS NULL ORDER BY updated_at DESC`,
	models.ArchivedNotes: `archived_at IS NOT NULL AND deleted_at IS NULL ORDER BY archived_at DESC`,
	models.TrashedNotes:  `deleted_at IS NOT NULL ORDER BY deleted_at DESC`,
}

// PostgresNoteRepository stores notes. Content arrives sealed.
type PostgresNoteRepository struct {
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var n models.Note
	err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Subtitle, &n.Content, &n.Category, pq.Array(&n.Tags),
		&n.BackgroundColor, &n.FontFamily, &n.FontSize, &n.CreatedAt, &n.UpdatedAt, &n.ArchivedAt, &n.DeletedAt)
	return n, err
}

// ListNotes returns the notes of userID in the given view.
func (r *PostgresNoteRepository) ListNotes(ctx context.Context, userID string, view models.NoteView) ([]models.Note, error) {
	where, ok := noteViews[view]
	if !ok {
		return nil, fmt.Errorf("ListNotes: unknown view %q", view)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND `+where, userID)
	if err != nil {
		return nil, fmt.Errorf("ListNotes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNote returns one note of userID.
func (r *PostgresNoteRepository) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetNote: %w", err)
	}
	return &n, nil
}

// CreateNote inserts n.
func (r *PostgresNoteRepository) CreateNote(ctx context.Context, n *models.Note) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, subtitle, content, category, tags, background_color, font_family, font_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, n.ID, n.UserID, n.Title, n.Subtitle, n.Content, n.Category, pq.Array(n.Tags),
		n.BackgroundColor, n.FontFamily, n.FontSize, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateNote: %w", err)
	}
	return nil
}

// UpdateNote writes the editable fields of n.
func (r *PostgresNoteRepository) UpdateNote(ctx context.Context, n *models.Note) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notes SET title = $3, subtitle = $4, content = $5, category = $6, tags = $7,
			background_color = $8, font_family = $9, font_size = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2
	`, n.ID, n.UserID, n.Title, n.Subtitle, n.Content, n.Category, pq.Array(n.Tags),
		n.BackgroundColor, n.FontFamily, n.FontSize, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateNote: %w", err)
	}
	return expectAffected(res)
}

// SetArchivedAt archives the note at t, or unarchives it when t is nil.
func (r *PostgresNoteRepository) SetArchivedAt(ctx context.Context, userID, id string, t *time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notes SET archived_at = $3 WHERE id = $1 AND user_id = $2`, id, userID, t)
	if err != nil {
		return fmt.Errorf("SetArchivedAt: %w", err)
	}
	return expectAffected(res)
}

// SetDeletedAt moves the note to the trash at t, or restores it when t is
// nil.
func (r *PostgresNoteRepository) SetDeletedAt(ctx context.Context, userID, id string, t *time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notes SET deleted_at = $3 WHERE id = $1 AND user_id = $2`, id, userID, t)
	if err != nil {
		return fmt.Errorf("SetDeletedAt: %w", err)
	}
	return expectAffected(res)
}

// DeleteNote removes a note for good.
func (r *PostgresNoteRepository) DeleteNote(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteNote: %w", err)
	}
	return expectAffected(res)
}

// DeleteNotesByUser removes every note of userID.
func (r *PostgresNoteRepository) DeleteNotesByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteNotesByUser: %w", err)
	}
	return res.RowsAffected()
}

// PurgeTrash removes notes trashed before the cutoff.
func (r *PostgresNoteRepository) PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("PurgeTrash: %w", err)
	}
	return res.RowsAffected()
}
