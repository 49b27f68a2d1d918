package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/repository"
)

type fakeNotes struct {
	mu    sync.Mutex
	notes map[string]models.Note
}

func newFakeNotes() *fakeNotes { return &fakeNotes{notes: map[string]models.Note{}} }

func (f *fakeNotes) ListNotes(_ context.Context, userID string, view models.NoteView) ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Note
	for _, n := range f.notes {
		if n.UserID != userID {
			continue
		}
		switch view {
		case models.ActiveNotes:
			if n.ArchivedAt != nil || n.DeletedAt != nil {
				continue
			}
		case models.ArchivedNotes:
			if n.ArchivedAt == nil || n.DeletedAt != nil {
				continue
			}
		case models.TrashedNotes:
			if n.DeletedAt == nil {
				continue
			}
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeNotes) GetNote(_ context.Context, userID, id string) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (f *fakeNotes) CreateNote(_ context.Context, n *models.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[n.ID] = *n
	return nil
}

func (f *fakeNotes) UpdateNote(_ context.Context, n *models.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.notes[n.ID]
	if !ok || old.UserID != n.UserID {
		return repository.ErrNotFound
	}
	f.notes[n.ID] = *n
	return nil
}

func (f *fakeNotes) set(userID, id string, apply func(n *models.Note)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	apply(&n)
	f.notes[id] = n
	return nil
}

func (f *fakeNotes) SetArchivedAt(_ context.Context, userID, id string, t *time.Time) error {
	return f.set(userID, id, func(n *models.Note) { n.ArchivedAt = t })
}

func (f *fakeNotes) SetDeletedAt(_ context.Context, userID, id string, t *time.Time) error {
	return f.set(userID, id, func(n *models.Note) { n.DeletedAt = t })
}

func (f *fakeNotes) DeleteNote(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

type fakePasswords struct {
	mu    sync.Mutex
	items map[string]models.Password
}

func newFakePasswords() *fakePasswords { return &fakePasswords{items: map[string]models.Password{}} }

func (f *fakePasswords) ListPasswords(_ context.Context, userID string) ([]models.Password, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Password
	for _, p := range f.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakePasswords) GetPassword(_ context.Context, userID, id string) (*models.Password, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakePasswords) CreatePassword(_ context.Context, p *models.Password) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
	return nil
}

func (f *fakePasswords) UpdatePassword(_ context.Context, p *models.Password) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.items[p.ID] = *p
	return nil
}

func (f *fakePasswords) DeletePassword(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeFiles struct {
	mu        sync.Mutex
	files     map[string]models.File
	createErr error
}

func newFakeFiles() *fakeFiles { return &fakeFiles{files: map[string]models.File{}} }

func (f *fakeFiles) ListFiles(_ context.Context, userID string) ([]models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.File
	for _, x := range f.files {
		if x.UserID == userID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeFiles) GetFile(_ context.Context, userID, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.files[id]
	if !ok || x.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (f *fakeFiles) CreateFile(_ context.Context, x *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.files[x.ID] = *x
	return nil
}

func (f *fakeFiles) UpdateFile(_ context.Context, x *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[x.ID] = *x
	return nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, id)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]models.User{}} }

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.Email == u.Email {
			return repository.ErrConflict
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.Email == email {
			return &x, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	creates  int
	// beforeCreate runs before an insert; tests use it to simulate a
	// concurrent login winning the race.
	beforeCreate func()
}

func newFakeProfiles() *fakeProfiles { return &fakeProfiles{profiles: map[string]models.Profile{}} }

func (f *fakeProfiles) CreateProfile(_ context.Context, p *models.Profile) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.profiles[p.UserID]; ok {
		return nil
	}
	f.profiles[p.UserID] = *p
	return nil
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) MarkCodeShown(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CodeShown = true
	f.profiles[userID] = p
	return nil
}

func (f *fakeProfiles) DeleteProfile(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, userID)
	return nil
}

type fakeDeletions struct {
	mu   sync.Mutex
	rows map[string]*models.AccountDeletion
}

func newFakeDeletions() *fakeDeletions {
	return &fakeDeletions{rows: map[string]*models.AccountDeletion{}}
}

func (f *fakeDeletions) StartDeletion(_ context.Context, userID string) (*models.AccountDeletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[userID]
	if !ok {
		d = &models.AccountDeletion{UserID: userID, StartedAt: time.Now()}
		f.rows[userID] = d
	}
	cp := *d
	cp.CompletedSteps = append([]string(nil), d.CompletedSteps...)
	return &cp, nil
}

func (f *fakeDeletions) MarkStepDone(_ context.Context, userID, step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.rows[userID]
	for _, s := range d.CompletedSteps {
		if s == step {
			return nil
		}
	}
	d.CompletedSteps = append(d.CompletedSteps, step)
	return nil
}

func (f *fakeDeletions) SetLastError(_ context.Context, userID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID].LastError = msg
	return nil
}

func (f *fakeDeletions) CompleteDeletion(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.rows[userID].CompletedAt = &now
	f.rows[userID].LastError = ""
	return nil
}

func (f *fakeDeletions) ListPendingDeletions(_ context.Context) ([]models.AccountDeletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AccountDeletion
	for _, d := range f.rows {
		if d.CompletedAt == nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

// fakeUserData records calls and fails the steps listed in fail.
type fakeUserData struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeUserData) record(step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
	return f.fail[step]
}

func (f *fakeUserData) DeleteProfile(context.Context, string) error {
	return f.record(StepProfile)
}

func (f *fakeUserData) DeleteFilesByUser(context.Context, string) (int64, error) {
	return 0, f.record(StepFiles)
}

func (f *fakeUserData) DeleteNotesByUser(context.Context, string) (int64, error) {
	return 0, f.record(StepNotes)
}

func (f *fakeUserData) DeletePasswordsByUser(context.Context, string) (int64, error) {
	return 0, f.record(StepPasswords)
}

type fakeAdmin struct {
	calls int
	err   error
}

func (f *fakeAdmin) DeleteUser(context.Context, string) error {
	f.calls++
	return f.err
}

var errBoom = errors.New("boom")
