package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/metrics"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/session"
	"github.com/palamut62/my-notes/internal/validate"
)

// PasswordRepository defines the persistence operations needed by
// PasswordService. The password column is sealed.
type PasswordRepository interface {
	ListPasswords(ctx context.Context, userID string) ([]models.Password, error)
	GetPassword(ctx context.Context, userID, id string) (*models.Password, error)
	CreatePassword(ctx context.Context, p *models.Password) error
	UpdatePassword(ctx context.Context, p *models.Password) error
	DeletePassword(ctx context.Context, userID, id string) error
}

// RevealStatus is the gate state of one entry as seen by the client.
type RevealStatus struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func statusOf(g *gate.Gate) RevealStatus {
	return RevealStatus{State: g.State().String(), Error: g.Error()}
}

// PasswordService manages stored credentials. A secret only leaves the
// service for an entry whose gate is revealed in the caller's session.
type PasswordService struct {
	repo  PasswordRepository
	codec Sealer
	log   *zap.Logger
	now   func() time.Time
}

// NewPasswordService constructs a PasswordService.
func NewPasswordService(repo PasswordRepository, codec Sealer, log *zap.Logger) *PasswordService {
	return &PasswordService{repo: repo, codec: codec, log: log, now: time.Now}
}

// List returns every entry of the session's user. The secret is filled in
// only for revealed entries.
func (s *PasswordService) List(ctx context.Context, sess *session.Session) ([]models.Password, error) {
	list, err := s.repo.ListPasswords(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.present(sess, &list[i])
	}
	return list, nil
}

// Create stores a new entry. The returned entry does not carry the secret.
func (s *PasswordService) Create(ctx context.Context, sess *session.Session, in models.PasswordInput) (*models.Password, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	sealed, err := s.codec.Seal(in.Password, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("seal password: %w", err)
	}

	now := s.now().UTC()
	p := &models.Password{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		Title:     in.Title,
		Username:  in.Username,
		Password:  sealed,
		URL:       in.URL,
		Category:  in.Category,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePassword(ctx, p); err != nil {
		return nil, err
	}
	p.Password = ""
	return p, nil
}

// Update applies the non-nil fields of upd. A new secret is re-sealed.
func (s *PasswordService) Update(ctx context.Context, sess *session.Session, id string, upd models.PasswordUpdate) (*models.Password, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := validate.Struct(upd); err != nil {
		return nil, invalid(err)
	}
	for field, v := range map[string]*string{"title": upd.Title, "username": upd.Username, "password": upd.Password} {
		if v != nil && *v == "" {
			return nil, fmt.Errorf("%w: field '%s' is required", ErrInvalidInput, field)
		}
	}

	p, err := s.repo.GetPassword(ctx, sess.UserID, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Username != nil {
		p.Username = *upd.Username
	}
	if upd.URL != nil {
		p.URL = *upd.URL
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	if upd.Password != nil {
		sealed, err := s.codec.Seal(*upd.Password, sess.UserID)
		if err != nil {
			return nil, fmt.Errorf("seal password: %w", err)
		}
		p.Password = sealed
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdatePassword(ctx, p); err != nil {
		return nil, mapRepoErr(err)
	}
	s.present(sess, p)
	return p, nil
}

// Delete removes an entry and forgets its gate.
func (s *PasswordService) Delete(ctx context.Context, sess *session.Session, id string) error {
	if err := s.repo.DeletePassword(ctx, sess.UserID, id); err != nil {
		return mapRepoErr(err)
	}
	sess.DropGate(id)
	return nil
}

// RequestReveal opens the verification prompt of an entry.
func (s *PasswordService) RequestReveal(ctx context.Context, sess *session.Session, id string) (RevealStatus, error) {
	if _, err := s.repo.GetPassword(ctx, sess.UserID, id); err != nil {
		return RevealStatus{}, mapRepoErr(err)
	}
	g := sess.Gate(id)
	g.RequestReveal()
	return statusOf(g), nil
}

// VerifyReveal submits a one-time code for an entry. On success the entry
// is returned with its secret.
func (s *PasswordService) VerifyReveal(ctx context.Context, sess *session.Session, id, code string) (*models.Password, error) {
	g, ok := sess.LookupGate(id)
	if !ok {
		return nil, gate.ErrNotAwaitingCode
	}

	if err := g.Submit(ctx, code, sess.Code()); err != nil {
		recordVerification("password", err)
		return nil, err
	}
	recordVerification("password", nil)

	p, err := s.repo.GetPassword(ctx, sess.UserID, id)
	if err != nil {
		sess.DropGate(id)
		return nil, mapRepoErr(err)
	}
	s.present(sess, p)
	return p, nil
}

// CancelReveal closes the prompt of an entry without revealing it.
func (s *PasswordService) CancelReveal(sess *session.Session, id string) RevealStatus {
	g, ok := sess.LookupGate(id)
	if !ok {
		return RevealStatus{State: gate.Hidden.String()}
	}
	st := statusOf(g)
	if g.Cancel() == gate.Hidden {
		sess.DropGate(id)
		st = RevealStatus{State: gate.Hidden.String()}
	}
	return st
}

// Hide masks a revealed entry again. Hiding a hidden entry is a no-op.
func (s *PasswordService) Hide(sess *session.Session, id string) RevealStatus {
	g, ok := sess.LookupGate(id)
	if !ok {
		return RevealStatus{State: gate.Hidden.String()}
	}
	if g.Hide() == gate.Hidden {
		sess.DropGate(id)
		return RevealStatus{State: gate.Hidden.String()}
	}
	return statusOf(g)
}

// RevealState reports the gate state of an entry.
func (s *PasswordService) RevealState(sess *session.Session, id string) RevealStatus {
	g, ok := sess.LookupGate(id)
	if !ok {
		return RevealStatus{State: gate.Hidden.String()}
	}
	return statusOf(g)
}

// present turns a stored entry into its client view for sess.
func (s *PasswordService) present(sess *session.Session, p *models.Password) {
	sealed := p.Password
	p.Password = ""
	p.Revealed = false

	if !sess.Revealed(p.ID) {
		return
	}
	plain, ok := open(s.codec, s.log, "password", p.ID, sealed, p.UserID)
	if !ok {
		p.Undecryptable = true
		return
	}
	p.Password = plain
	p.Revealed = true
}

func recordVerification(kind string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, gate.ErrInvalidCode):
		result = "invalid"
	case errors.Is(err, gate.ErrTooManyAttempts):
		result = "locked"
	default:
		result = "error"
	}
	metrics.RevealVerifications.WithLabelValues(kind, result).Inc()
}
