package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/auth"
	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/metrics"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/repository"
	"github.com/palamut62/my-notes/internal/session"
	"github.com/palamut62/my-notes/internal/validate"
)

// PasswordProvider is the provider name of email/password accounts.
const PasswordProvider = "password"

// UserRepository defines the account operations needed by AuthService.
type UserRepository interface {
	// CreateUser inserts an account; a taken email yields
	// repository.ErrConflict.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileRepository defines the profile operations needed by AuthService.
type ProfileRepository interface {
	// CreateProfile inserts a profile unless one exists already.
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	MarkCodeShown(ctx context.Context, userID string) error
}

// TokenIssuer signs and checks session tokens.
type TokenIssuer interface {
	Issue(userID, sessionID string) (string, time.Time, error)
	Parse(token string) (*auth.Claims, error)
}

// LoginResult is handed to the client after a successful sign-in.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	// OneTimeCode is set until the client acknowledges showing it.
	OneTimeCode string `json:"one_time_code,omitempty"`
}

// ProfileStatus describes the one-time code of the signed-in user.
type ProfileStatus struct {
	Email           string     `json:"email"`
	CodeShown       bool       `json:"code_shown"`
	CodeGeneratedAt *time.Time `json:"code_generated_at,omitempty"`
	OneTimeCode     string     `json:"one_time_code,omitempty"`
}

// AuthService signs users in and out and owns their one-time code.
type AuthService struct {
	users     UserRepository
	profiles  ProfileRepository
	codec     Sealer
	sessions  *session.Manager
	tokens    TokenIssuer
	providers map[string]auth.Provider
	params    *auth.Params
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService. providers maps an OAuth
// provider name to its implementation and may be empty.
func NewAuthService(
	users UserRepository,
	profiles ProfileRepository,
	codec Sealer,
	sessions *session.Manager,
	tokens TokenIssuer,
	providers map[string]auth.Provider,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		profiles:  profiles,
		codec:     codec,
		sessions:  sessions,
		tokens:    tokens,
		providers: providers,
		params:    auth.DefaultParams(),
		log:       log,
		now:       time.Now,
	}
}

// SignUp registers an email/password account.
func (s *AuthService) SignUp(ctx context.Context, creds models.Credentials) (*models.User, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := validate.Struct(creds); err != nil {
		return nil, invalid(err)
	}

	hash, err := auth.HashPassword(creds.Password, s.params)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: hash,
		Provider:     PasswordProvider,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.log.Info("User registered", zap.String("user_id", u.ID))
	return u, nil
}

// SignIn checks the password and opens a session.
func (s *AuthService) SignIn(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues(PasswordProvider, "failed").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || auth.VerifyPassword(creds.Password, u.PasswordHash) != nil {
		metrics.LoginAttempts.WithLabelValues(PasswordProvider, "failed").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.LoginAttempts.WithLabelValues(PasswordProvider, "ok").Inc()
	return s.startSession(ctx, u)
}

// OAuthURL returns where to send the browser to sign in with provider.
func (s *AuthService) OAuthURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.AuthURL(state), nil
}

// SignInOAuth completes an OAuth sign-in. Unknown emails get a new
// account without a password.
func (s *AuthService) SignInOAuth(ctx context.Context, provider, code string) (*LoginResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	info, err := p.Exchange(ctx, code)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(provider, "failed").Inc()
		s.log.Warn("OAuth exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, ErrUnauthenticated
	}
	email := strings.ToLower(info.Email)

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		u = &models.User{
			ID:        uuid.NewString(),
			Email:     email,
			Provider:  provider,
			CreatedAt: s.now().UTC(),
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		s.log.Info("User registered", zap.String("user_id", u.ID), zap.String("provider", provider))
	} else if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues(provider, "ok").Inc()
	return s.startSession(ctx, u)
}

func (s *AuthService) startSession(ctx context.Context, u *models.User) (*LoginResult, error) {
	code, profile, err := s.ensureCode(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	sess := s.sessions.Create(u.ID, u.Email, code)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))

	token, exp, err := s.tokens.Issue(u.ID, sess.ID)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, err
	}

	res := &LoginResult{Token: token, ExpiresAt: exp, User: u}
	if !profile.CodeShown {
		res.OneTimeCode = code
	}
	return res, nil
}

// ensureCode returns the plaintext one-time code of userID, generating
// and storing it on first login.
func (s *AuthService) ensureCode(ctx context.Context, userID string) (string, *models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.createProfile(ctx, userID); err != nil {
			return "", nil, err
		}
		// another login may have won the insert
		p, err = s.profiles.GetProfile(ctx, userID)
	}
	if err != nil {
		return "", nil, fmt.Errorf("load profile: %w", err)
	}

	code, err := s.codec.Unseal(p.OneTimeCode, userID)
	if err != nil {
		metrics.DecryptFailures.WithLabelValues("profile").Inc()
		s.log.Error("Failed to decrypt one-time code", zap.String("user_id", userID), zap.Error(err))
		return "", nil, fmt.Errorf("open one-time code: %w", err)
	}
	return code, p, nil
}

func (s *AuthService) createProfile(ctx context.Context, userID string) error {
	code, err := gate.NewCode()
	if err != nil {
		return err
	}
	sealed, err := s.codec.Seal(code, userID)
	if err != nil {
		return fmt.Errorf("seal code: %w", err)
	}
	now := s.now().UTC()
	return s.profiles.CreateProfile(ctx, &models.Profile{
		UserID:          userID,
		OneTimeCode:     sealed,
		CodeGeneratedAt: &now,
	})
}

// Authenticate resolves a session token to its live session.
func (s *AuthService) Authenticate(token string) (*session.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	sess, ok := s.sessions.Get(claims.SessionID)
	if !ok || sess.UserID != claims.Subject {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// SignOut ends the session.
func (s *AuthService) SignOut(sess *session.Session) {
	s.sessions.Delete(sess.ID)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
}

// MarkCodeShown records that the client displayed the one-time code. It is
// never returned again afterwards.
func (s *AuthService) MarkCodeShown(ctx context.Context, userID string) error {
	return mapRepoErr(s.profiles.MarkCodeShown(ctx, userID))
}

// Profile reports the one-time code status of the session's user.
func (s *AuthService) Profile(ctx context.Context, sess *session.Session) (*ProfileStatus, error) {
	p, err := s.profiles.GetProfile(ctx, sess.UserID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	st := &ProfileStatus{
		Email:           sess.Email,
		CodeShown:       p.CodeShown,
		CodeGeneratedAt: p.CodeGeneratedAt,
	}
	if !p.CodeShown {
		st.OneTimeCode = sess.Code()
	}
	return st, nil
}

// VerifyAccountPassword re-authenticates userID. Accounts without a
// password never pass.
func (s *AuthService) VerifyAccountPassword(ctx context.Context, userID, password string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIncorrectPassword
		}
		return err
	}
	if u.PasswordHash == "" || auth.VerifyPassword(password, u.PasswordHash) != nil {
		return ErrIncorrectPassword
	}
	return nil
}
