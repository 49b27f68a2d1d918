package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/palamut62/my-notes/internal/models"
)

// PostgresProfileRepository stores the one-time code of each account.
type PostgresProfileRepository struct {
	DB *sql.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{DB: db}
}

// CreateProfile inserts p unless the user already has a profile. Callers
// re-read the profile afterwards, so concurrent first logins agree on one
// code.
func (r *PostgresProfileRepository) CreateProfile(ctx context.Context, p *models.Profile) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, one_time_code, code_shown, code_generated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, p.OneTimeCode, p.CodeShown, p.CodeGeneratedAt)
	if err != nil {
		return fmt.Errorf("CreateProfile: %w", err)
	}
	return nil
}

// GetProfile returns the profile of userID.
func (r *PostgresProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, one_time_code, code_shown, code_generated_at FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.OneTimeCode, &p.CodeShown, &p.CodeGeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return &p, nil
}

// MarkCodeShown records that the user has seen the one-time code.
func (r *PostgresProfileRepository) MarkCodeShown(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE user_profiles SET code_shown = true WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("MarkCodeShown: %w", err)
	}
	return expectAffected(res)
}

// DeleteProfile removes the profile of userID.
func (r *PostgresProfileRepository) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("DeleteProfile: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
