package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/palamut62/my-notes/internal/models"
)

const fileColumns = `id, user_id, name, type, size, path, category, notes, created_at, updated_at`

// PostgresFileRepository stores metadata of uploaded objects.
type PostgresFileRepository struct {
	DB *sql.DB
}

// NewPostgresFileRepository creates a new PostgresFileRepository.
func NewPostgresFileRepository(db *sql.DB) *PostgresFileRepository {
	return &PostgresFileRepository{DB: db}
}

func scanFile(s scanner) (models.File, error) {
	var f models.File
	err := s.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.Size, &f.Path, &f.Category, &f.Notes, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// ListFiles returns the files of userID, newest first.
func (r *PostgresFileRepository) ListFiles(ctx context.Context, userID string) ([]models.File, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListFiles: %w", err)
	}
	defer rows.Close()

	list := []models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// GetFile returns one file of userID.
func (r *PostgresFileRepository) GetFile(ctx context.Context, userID, id string) (*models.File, error) {
	f, err := scanFile(r.DB.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetFile: %w", err)
	}
	return &f, nil
}

// CreateFile inserts f. A taken path yields ErrConflict.
func (r *PostgresFileRepository) CreateFile(ctx context.Context, f *models.File) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO files (id, user_id, name, type, size, path, category, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, f.ID, f.UserID, f.Name, f.Type, f.Size, f.Path, f.Category, f.Notes, f.CreatedAt, f.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("CreateFile: %w", err)
	}
	return nil
}

// UpdateFile writes the editable metadata of f.
func (r *PostgresFileRepository) UpdateFile(ctx context.Context, f *models.File) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE files SET category = $3, notes = $4, updated_at = $5 WHERE id = $1 AND user_id = $2`,
		f.ID, f.UserID, f.Category, f.Notes, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateFile: %w", err)
	}
	return expectAffected(res)
}

// DeleteFile removes one metadata row.
func (r *PostgresFileRepository) DeleteFile(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM files WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteFile: %w", err)
	}
	return expectAffected(res)
}

// DeleteFilesByUser removes every metadata row of userID.
func (r *PostgresFileRepository) DeleteFilesByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM files WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteFilesByUser: %w", err)
	}
	return res.RowsAffected()
}
