package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/service"
	"github.com/palamut62/my-notes/internal/session"
)

const testToken = "valid-token"

// fakeAuthService implements AuthService and middleware.Authenticator.
type fakeAuthService struct {
	sess      *session.Session
	signUpErr error
	signInErr error
	oauthCode string
	signedOut bool
	shownFor  string
}

func (f *fakeAuthService) Authenticate(token string) (*session.Session, error) {
	if token != testToken {
		return nil, service.ErrUnauthenticated
	}
	return f.sess, nil
}

func (f *fakeAuthService) SignUp(_ context.Context, creds models.Credentials) (*models.User, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.User{ID: "u1", Email: creds.Email, Provider: service.PasswordProvider}, nil
}

func (f *fakeAuthService) SignIn(_ context.Context, creds models.Credentials) (*service.LoginResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &service.LoginResult{Token: testToken, User: &models.User{ID: "u1", Email: creds.Email}, OneTimeCode: "123456"}, nil
}

func (f *fakeAuthService) OAuthURL(provider, state string) (string, error) {
	if provider != "google" {
		return "", service.ErrUnknownProvider
	}
	return "https://accounts.example/auth?state=" + state, nil
}

func (f *fakeAuthService) SignInOAuth(_ context.Context, provider, code string) (*service.LoginResult, error) {
	f.oauthCode = code
	return &service.LoginResult{Token: testToken, User: &models.User{ID: "u1", Provider: provider}}, nil
}

func (f *fakeAuthService) SignOut(*session.Session) { f.signedOut = true }

func (f *fakeAuthService) Profile(_ context.Context, sess *session.Session) (*service.ProfileStatus, error) {
	return &service.ProfileStatus{Email: sess.Email, OneTimeCode: sess.Code()}, nil
}

func (f *fakeAuthService) MarkCodeShown(_ context.Context, userID string) error {
	f.shownFor = userID
	return nil
}

type fakeNoteService struct {
	view    models.NoteView
	created models.NoteInput
	trashed string
}

func (f *fakeNoteService) List(_ context.Context, _ string, view models.NoteView) ([]models.Note, error) {
	f.view = view
	if view == "bogus" {
		return nil, service.ErrInvalidInput
	}
	return nil, nil
}

func (f *fakeNoteService) Get(_ context.Context, userID, id string) (*models.Note, error) {
	if id != "n1" {
		return nil, service.ErrNotFound
	}
	return &models.Note{ID: id, UserID: userID, Content: "hello"}, nil
}

func (f *fakeNoteService) Create(_ context.Context, userID string, in models.NoteInput) (*models.Note, error) {
	f.created = in
	return &models.Note{ID: "n1", UserID: userID, Title: in.Title}, nil
}

func (f *fakeNoteService) Update(_ context.Context, userID, id string, upd models.NoteUpdate) (*models.Note, error) {
	return &models.Note{ID: id, UserID: userID}, nil
}

func (f *fakeNoteService) Archive(context.Context, string, string) error   { return nil }
func (f *fakeNoteService) Unarchive(context.Context, string, string) error { return nil }

func (f *fakeNoteService) MoveToTrash(_ context.Context, _, id string) error {
	f.trashed = id
	return nil
}

func (f *fakeNoteService) Restore(context.Context, string, string) error { return nil }

func (f *fakeNoteService) DeletePermanently(_ context.Context, _, id string) error {
	if id != "n1" {
		return service.ErrNotFound
	}
	return nil
}

type fakePasswordService struct {
	verifyErr error
}

func (f *fakePasswordService) List(context.Context, *session.Session) ([]models.Password, error) {
	return []models.Password{{ID: "p1", Title: "mail"}}, nil
}

func (f *fakePasswordService) Create(_ context.Context, sess *session.Session, in models.PasswordInput) (*models.Password, error) {
	return &models.Password{ID: "p1", UserID: sess.UserID, Title: in.Title}, nil
}

func (f *fakePasswordService) Update(_ context.Context, _ *session.Session, id string, _ models.PasswordUpdate) (*models.Password, error) {
	return &models.Password{ID: id}, nil
}

func (f *fakePasswordService) Delete(context.Context, *session.Session, string) error { return nil }

func (f *fakePasswordService) RequestReveal(context.Context, *session.Session, string) (service.RevealStatus, error) {
	return service.RevealStatus{State: gate.AwaitingCode.String()}, nil
}

func (f *fakePasswordService) VerifyReveal(_ context.Context, _ *session.Session, id, code string) (*models.Password, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if code != "123456" {
		return nil, gate.ErrInvalidCode
	}
	return &models.Password{ID: id, Password: "hunter2", Revealed: true}, nil
}

func (f *fakePasswordService) CancelReveal(*session.Session, string) service.RevealStatus {
	return service.RevealStatus{State: gate.Hidden.String()}
}

func (f *fakePasswordService) Hide(*session.Session, string) service.RevealStatus {
	return service.RevealStatus{State: gate.Hidden.String()}
}

func (f *fakePasswordService) RevealState(*session.Session, string) service.RevealStatus {
	return service.RevealStatus{State: gate.Revealed.String()}
}

type fakeFileService struct {
	uploaded service.Upload
	content  []byte
}

func (f *fakeFileService) Upload(_ context.Context, userID string, up service.Upload) (*models.File, error) {
	if up.Name == "dup.txt" {
		return nil, service.ErrFileExists
	}
	data, err := io.ReadAll(up.Body)
	if err != nil {
		return nil, err
	}
	f.uploaded = up
	f.content = data
	return &models.File{ID: "f1", UserID: userID, Name: up.Name, Size: up.Size, Type: up.ContentType}, nil
}

func (f *fakeFileService) List(context.Context, string) ([]models.File, error) { return nil, nil }

func (f *fakeFileService) Download(_ context.Context, userID, id string) (*models.File, io.ReadCloser, error) {
	if id != "f1" {
		return nil, nil, service.ErrNotFound
	}
	return &models.File{ID: id, UserID: userID, Name: "report.pdf", Type: "application/pdf", Size: 4},
		io.NopCloser(bytes.NewReader([]byte("%PDF"))), nil
}

func (f *fakeFileService) Update(_ context.Context, _, id string, upd models.FileUpdate) (*models.File, error) {
	return &models.File{ID: id, Category: *upd.Category}, nil
}

func (f *fakeFileService) Delete(context.Context, string, string) error { return nil }

type fakeAccountService struct {
	confirmErr error
	cancelled  bool
}

func (f *fakeAccountService) BeginDeletion(_ context.Context, _ *session.Session, password string) (string, error) {
	if password != "secret123" {
		return "", service.ErrIncorrectPassword
	}
	return "654321", nil
}

func (f *fakeAccountService) ConfirmDeletion(_ context.Context, _ *session.Session, code string) error {
	if code != "654321" {
		return gate.ErrInvalidCode
	}
	return f.confirmErr
}

func (f *fakeAccountService) CancelDeletion(*session.Session) { f.cancelled = true }

type testServer struct {
	router    http.Handler
	auth      *fakeAuthService
	notes     *fakeNoteService
	passwords *fakePasswordService
	files     *fakeFileService
	account   *fakeAccountService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		auth:      &fakeAuthService{sess: session.NewManager(0, nil).Create("u1", "alice@example.com", "123456")},
		notes:     &fakeNoteService{},
		passwords: &fakePasswordService{},
		files:     &fakeFileService{},
		account:   &fakeAccountService{},
	}
	ts.router = NewRouter(Handlers{
		Auth:      &AuthHandler{AuthService: ts.auth},
		Notes:     &NoteHandler{NoteService: ts.notes},
		Passwords: &PasswordHandler{PasswordService: ts.passwords},
		Files:     &FileHandler{FileService: ts.files},
		Account:   &AccountHandler{AccountService: ts.account},
	}, ts.auth, zap.NewNop())
	return ts
}

// do sends an authenticated JSON request unless token is empty.
func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

var errDB = errors.New("db down")
