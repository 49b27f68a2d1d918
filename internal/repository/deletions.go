package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/palamut62/my-notes/internal/models"
)

// PostgresDeletionRepository persists the progress of account deletions.
type PostgresDeletionRepository struct {
	DB *sql.DB
}

// NewPostgresDeletionRepository creates a new PostgresDeletionRepository.
func NewPostgresDeletionRepository(db *sql.DB) *PostgresDeletionRepository {
	return &PostgresDeletionRepository{DB: db}
}

// StartDeletion opens the checklist of userID, keeping an existing one.
func (r *PostgresDeletionRepository) StartDeletion(ctx context.Context, userID string) (*models.AccountDeletion, error) {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO account_deletions (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("StartDeletion: %w", err)
	}
	return r.GetDeletion(ctx, userID)
}

// GetDeletion returns the checklist of userID.
func (r *PostgresDeletionRepository) GetDeletion(ctx context.Context, userID string) (*models.AccountDeletion, error) {
	var d models.AccountDeletion
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, completed_steps, last_error, started_at, completed_at FROM account_deletions WHERE user_id = $1
	`, userID).Scan(&d.UserID, pq.Array(&d.CompletedSteps), &d.LastError, &d.StartedAt, &d.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetDeletion: %w", err)
	}
	return &d, nil
}

// MarkStepDone adds step to the completed steps of userID once.
func (r *PostgresDeletionRepository) MarkStepDone(ctx context.Context, userID, step string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE account_deletions SET completed_steps = array_append(completed_steps, $2)
		WHERE user_id = $1 AND NOT ($2 = ANY(completed_steps))
	`, userID, step)
	if err != nil {
		return fmt.Errorf("MarkStepDone: %w", err)
	}
	return nil
}

// SetLastError records the failure summary of the latest run.
func (r *PostgresDeletionRepository) SetLastError(ctx context.Context, userID, msg string) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE account_deletions SET last_error = $2 WHERE user_id = $1`, userID, msg); err != nil {
		return fmt.Errorf("SetLastError: %w", err)
	}
	return nil
}

// CompleteDeletion marks the checklist of userID as finished.
func (r *PostgresDeletionRepository) CompleteDeletion(ctx context.Context, userID string) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE account_deletions SET completed_at = now(), last_error = '' WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("CompleteDeletion: %w", err)
	}
	return nil
}

// ListPendingDeletions returns every checklist that has not finished.
func (r *PostgresDeletionRepository) ListPendingDeletions(ctx context.Context) ([]models.AccountDeletion, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, completed_steps, last_error, started_at, completed_at FROM account_deletions
		WHERE completed_at IS NULL ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ListPendingDeletions: %w", err)
	}
	defer rows.Close()

	var list []models.AccountDeletion
	for rows.Next() {
		var d models.AccountDeletion
		if err := rows.Scan(&d.UserID, pq.Array(&d.CompletedSteps), &d.LastError, &d.StartedAt, &d.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
