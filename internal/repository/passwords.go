package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/palamut62/my-notes/internal/models"
)

const passwordColumns = `id, user_id, title, username, password, url, category, notes, created_at, updated_at`

// PostgresPasswordRepository stores credentials. The password column
// arrives sealed.
type PostgresPasswordRepository struct {
	DB *sql.DB
}

// NewPostgresPasswordRepository creates a new PostgresPasswordRepository.
func NewPostgresPasswordRepository(db *sql.DB) *PostgresPasswordRepository {
	return &PostgresPasswordRepository{DB: db}
}

func scanPassword(s scanner) (models.Password, error) {
	var p models.Password
	err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Username, &p.Password, &p.URL, &p.Category, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListPasswords returns every entry of userID, newest first.
func (r *PostgresPasswordRepository) ListPasswords(ctx context.Context, userID string) ([]models.Password, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+passwordColumns+` FROM passwords WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListPasswords: %w", err)
	}
	defer rows.Close()

	list := []models.Password{}
	for rows.Next() {
		p, err := scanPassword(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetPassword returns one entry of userID.
func (r *PostgresPasswordRepository) GetPassword(ctx context.Context, userID, id string) (*models.Password, error) {
	p, err := scanPassword(r.DB.QueryRowContext(ctx,
		`SELECT `+passwordColumns+` FROM passwords WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetPassword: %w", err)
	}
	return &p, nil
}

// CreatePassword inserts p.
func (r *PostgresPasswordRepository) CreatePassword(ctx context.Context, p *models.Password) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO passwords (id, user_id, title, username, password, url, category, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.UserID, p.Title, p.Username, p.Password, p.URL, p.Category, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreatePassword: %w", err)
	}
	return nil
}

// UpdatePassword writes the editable fields of p.
func (r *PostgresPasswordRepository) UpdatePassword(ctx context.Context, p *models.Password) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE passwords SET title = $3, username = $4, password = $5, url = $6, category = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
	`, p.ID, p.UserID, p.Title, p.Username, p.Password, p.URL, p.Category, p.Notes, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdatePassword: %w", err)
	}
	return expectAffected(res)
}

// DeletePassword removes one entry.
func (r *PostgresPasswordRepository) DeletePassword(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM passwords WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeletePassword: %w", err)
	}
	return expectAffected(res)
}

// DeletePasswordsByUser removes every entry of userID.
func (r *PostgresPasswordRepository) DeletePasswordsByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM passwords WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeletePasswordsByUser: %w", err)
	}
	return res.RowsAffected()
}
