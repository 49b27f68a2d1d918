package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/metrics"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/objectstore"
	"github.com/palamut62/my-notes/internal/session"
)

// Account deletion steps, in the order they run.
const (
	StepProfile   = "profile"
	StepFiles     = "files"
	StepNotes     = "notes"
	StepPasswords = "passwords"
	StepStorage   = "storage"
	StepAuth      = "auth"
)

// dataSteps run independently of each other. StepAuth only runs once all
// of them are done.
var dataSteps = []string{StepProfile, StepFiles, StepNotes, StepPasswords, StepStorage}

// DeletionRepository persists the checklist of account deletions.
type DeletionRepository interface {
	// StartDeletion opens the checklist of userID or returns the existing
	// one.
	StartDeletion(ctx context.Context, userID string) (*models.AccountDeletion, error)
	MarkStepDone(ctx context.Context, userID, step string) error
	SetLastError(ctx context.Context, userID, msg string) error
	CompleteDeletion(ctx context.Context, userID string) error
	ListPendingDeletions(ctx context.Context) ([]models.AccountDeletion, error)
}

// UserData removes the rows of one user, one table per method.
type UserData interface {
	DeleteProfile(ctx context.Context, userID string) error
	DeleteFilesByUser(ctx context.Context, userID string) (int64, error)
	DeleteNotesByUser(ctx context.Context, userID string) (int64, error)
	DeletePasswordsByUser(ctx context.Context, userID string) (int64, error)
}

// UserDataRepos joins the per-table repositories into UserData.
type UserDataRepos struct {
	Profiles  interface{ DeleteProfile(ctx context.Context, userID string) error }
	Files     interface{ DeleteFilesByUser(ctx context.Context, userID string) (int64, error) }
	Notes     interface{ DeleteNotesByUser(ctx context.Context, userID string) (int64, error) }
	Passwords interface{ DeletePasswordsByUser(ctx context.Context, userID string) (int64, error) }
}

func (r UserDataRepos) DeleteProfile(ctx context.Context, userID string) error {
	return r.Profiles.DeleteProfile(ctx, userID)
}

func (r UserDataRepos) DeleteFilesByUser(ctx context.Context, userID string) (int64, error) {
	return r.Files.DeleteFilesByUser(ctx, userID)
}

func (r UserDataRepos) DeleteNotesByUser(ctx context.Context, userID string) (int64, error) {
	return r.Notes.DeleteNotesByUser(ctx, userID)
}

func (r UserDataRepos) DeletePasswordsByUser(ctx context.Context, userID string) (int64, error) {
	return r.Passwords.DeletePasswordsByUser(ctx, userID)
}

// UserDeleter removes account records with service credentials.
type UserDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// PasswordVerifier re-authenticates a user.
type PasswordVerifier interface {
	VerifyAccountPassword(ctx context.Context, userID, password string) error
}

// AccountService runs the account deletion flow: password re-check, a
// fresh code shown inline, code confirmation and then the deletion saga.
type AccountService struct {
	deletions DeletionRepository
	data      UserData
	store     objectstore.Store
	admin     UserDeleter
	verifier  PasswordVerifier
	sessions  *session.Manager
	log       *zap.Logger
}

// NewAccountService constructs an AccountService. admin may be nil when
// no service credentials are configured; deletions then stop before the
// account record.
func NewAccountService(
	deletions DeletionRepository,
	data UserData,
	store objectstore.Store,
	admin UserDeleter,
	verifier PasswordVerifier,
	sessions *session.Manager,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		deletions: deletions,
		data:      data,
		store:     store,
		admin:     admin,
		verifier:  verifier,
		sessions:  sessions,
		log:       log,
	}
}

// BeginDeletion re-checks the account password and returns a fresh code
// that the client shows inline and the user types back.
func (s *AccountService) BeginDeletion(ctx context.Context, sess *session.Session, password string) (string, error) {
	if err := s.verifier.VerifyAccountPassword(ctx, sess.UserID, password); err != nil {
		return "", err
	}
	return sess.StartDeletion()
}

// ConfirmDeletion checks the deletion code and deletes the account.
func (s *AccountService) ConfirmDeletion(ctx context.Context, sess *session.Session, code string) error {
	g, expected := sess.Deletion()
	if g == nil {
		return gate.ErrNotAwaitingCode
	}
	if err := g.Submit(ctx, code, expected); err != nil {
		recordVerification("deletion", err)
		return err
	}
	recordVerification("deletion", nil)
	sess.ClearDeletion()

	return s.DeleteAccount(ctx, sess.UserID)
}

// CancelDeletion abandons a started deletion.
func (s *AccountService) CancelDeletion(sess *session.Session) {
	sess.ClearDeletion()
}

// DeleteAccount runs the pending steps of the user's deletion checklist.
// A failing data step is logged and the remaining steps still run; the
// account record is only removed once every data step is done. On
// success every session of the user ends.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	d, err := s.deletions.StartDeletion(ctx, userID)
	if err != nil {
		return err
	}
	if d.CompletedAt != nil {
		return nil
	}

	done := make(map[string]bool, len(d.CompletedSteps))
	for _, step := range d.CompletedSteps {
		done[step] = true
	}

	var failed []string
	for _, step := range dataSteps {
		if done[step] {
			continue
		}
		if err := s.runStep(ctx, userID, step); err != nil {
			failed = append(failed, step+": "+err.Error())
		}
	}

	if len(failed) == 0 && !done[StepAuth] {
		if err := s.runStep(ctx, userID, StepAuth); err != nil {
			failed = append(failed, StepAuth+": "+err.Error())
		}
	}

	if len(failed) > 0 {
		msg := strings.Join(failed, "; ")
		if err := s.deletions.SetLastError(ctx, userID, msg); err != nil {
			s.log.Error("Failed to record deletion error", zap.String("user_id", userID), zap.Error(err))
		}
		return fmt.Errorf("%w: %s", ErrDeletionIncomplete, msg)
	}

	if err := s.deletions.CompleteDeletion(ctx, userID); err != nil {
		s.log.Error("Failed to mark deletion complete", zap.String("user_id", userID), zap.Error(err))
	}
	n := s.sessions.DeleteUser(userID)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	s.log.Info("Account deleted", zap.String("user_id", userID), zap.Int("sessions_ended", n))
	return nil
}

func (s *AccountService) runStep(ctx context.Context, userID, step string) error {
	err := s.execStep(ctx, userID, step)
	if err == nil {
		err = s.deletions.MarkStepDone(ctx, userID, step)
	}
	if err != nil {
		metrics.DeletionSteps.WithLabelValues(step, "failed").Inc()
		s.log.Error("Account deletion step failed", zap.String("user_id", userID), zap.String("step", step), zap.Error(err))
		return err
	}
	metrics.DeletionSteps.WithLabelValues(step, "done").Inc()
	return nil
}

func (s *AccountService) execStep(ctx context.Context, userID, step string) error {
	var err error
	switch step {
	case StepProfile:
		err = s.data.DeleteProfile(ctx, userID)
	case StepFiles:
		_, err = s.data.DeleteFilesByUser(ctx, userID)
	case StepNotes:
		_, err = s.data.DeleteNotesByUser(ctx, userID)
	case StepPasswords:
		_, err = s.data.DeletePasswordsByUser(ctx, userID)
	case StepStorage:
		_, err = objectstore.DeletePrefix(ctx, s.store, userID+"/")
	case StepAuth:
		if s.admin == nil {
			return ErrAdminNotConfigured
		}
		err = s.admin.DeleteUser(ctx, userID)
	default:
		err = fmt.Errorf("unknown step %q", step)
	}
	return err
}

// ResumePending retries every unfinished deletion and returns how many
// finished.
func (s *AccountService) ResumePending(ctx context.Context) (int, error) {
	pending, err := s.deletions.ListPendingDeletions(ctx)
	if err != nil {
		return 0, err
	}

	finished := 0
	for _, d := range pending {
		if err := s.DeleteAccount(ctx, d.UserID); err != nil {
			if !errors.Is(err, ErrDeletionIncomplete) {
				s.log.Error("Failed to resume account deletion", zap.String("user_id", d.UserID), zap.Error(err))
			}
			continue
		}
		finished++
	}
	return finished, nil
}

// StartDeletionResumer calls ResumePending every interval until ctx is
// done.
func (s *AccountService) StartDeletionResumer(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.ResumePending(ctx)
				if err != nil {
					s.log.Error("failed to list pending account deletions", zap.Error(err))
					continue
				}
				if n > 0 {
					s.log.Info("resumed account deletions", zap.Int("finished", n))
				}
			}
		}
	}()
}
