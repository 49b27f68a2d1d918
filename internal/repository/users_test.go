package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palamut62/my-notes/internal/models"
)

func TestCreateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)
	now := time.Now()
	u := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: "$argon2id$x", Provider: "password", CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, email, password_hash, provider, created_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs("u1", "a@b.c", "$argon2id$x", "password", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	require.NoError(t, repo.CreateUser(context.Background(), u))
	assert.ErrorIs(t, repo.CreateUser(context.Background(), u), ErrConflict)
}

func TestGetUserByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, provider, created_at FROM users WHERE email = $1`)).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "provider", "created_at"}).
			AddRow("u1", "a@b.c", "h", "password", now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetUserByEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = repo.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDeleteUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewPostgresAdminRepository(db).DeleteUser(context.Background(), "u1"))
}

func TestProfiles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresProfileRepository(db)
	now := time.Now()
	p := &models.Profile{UserID: "u1", OneTimeCode: "v2.sealed", CodeGeneratedAt: &now}

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id) DO NOTHING`)).
		WithArgs("u1", "v2.sealed", false, &now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, one_time_code, code_shown, code_generated_at FROM user_profiles WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "one_time_code", "code_shown", "code_generated_at"}).
			AddRow("u1", "v2.first", false, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_profiles SET code_shown = true WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_profiles SET code_shown = true WHERE user_id = $1`)).
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_profiles WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateProfile(context.Background(), p))

	// the stored row wins over the one we tried to insert
	got, err := repo.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "v2.first", got.OneTimeCode)
	require.NotNil(t, got.CodeGeneratedAt)

	require.NoError(t, repo.MarkCodeShown(context.Background(), "u1"))
	assert.ErrorIs(t, repo.MarkCodeShown(context.Background(), "u2"), ErrNotFound)
	require.NoError(t, repo.DeleteProfile(context.Background(), "u1"))
}

var passwordCols = []string{"id", "user_id", "title", "username", "password", "url", "category", "notes", "created_at", "updated_at"}

func TestPasswords(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPasswordRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + passwordColumns + ` FROM passwords WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(passwordCols).
			AddRow("p1", "u1", "mail", "me", "v2.a", "", "", "", now, now).
			AddRow("p2", "u1", "bank", "me", "v2.b", "https://bank", "", "", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO passwords`)).
		WithArgs("p3", "u1", "t", "u", "v2.c", "", "", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE passwords SET title = $3`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM passwords WHERE id = $1 AND user_id = $2`)).
		WithArgs("p9", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM passwords WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	list, err := repo.ListPasswords(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://bank", list[1].URL)

	p := &models.Password{ID: "p3", UserID: "u1", Title: "t", Username: "u", Password: "v2.c", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreatePassword(context.Background(), p))
	require.NoError(t, repo.UpdatePassword(context.Background(), p))
	assert.ErrorIs(t, repo.DeletePassword(context.Background(), "u1", "p9"), ErrNotFound)

	n, err := repo.DeletePasswordsByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

var fileCols = []string{"id", "user_id", "name", "type", "size", "path", "category", "notes", "created_at", "updated_at"}

func TestFiles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFileRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO files`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`)).
		WithArgs("f1", "u1").
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow("f1", "u1", "a.pdf", "application/pdf", int64(10), "u1/a.pdf", "", "", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE files SET category = $3, notes = $4, updated_at = $5 WHERE id = $1 AND user_id = $2`)).
		WithArgs("f1", "u1", "docs", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM files WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateFile(context.Background(), &models.File{ID: "f1", UserID: "u1", Path: "u1/a.pdf"})
	assert.ErrorIs(t, err, ErrConflict)

	f, err := repo.GetFile(context.Background(), "u1", "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, f.Size)

	f.Category = "docs"
	f.UpdatedAt = now
	require.NoError(t, repo.UpdateFile(context.Background(), f))

	_, err = repo.DeleteFilesByUser(context.Background(), "u1")
	require.NoError(t, err)
}

var deletionCols = []string{"user_id", "completed_steps", "last_error", "started_at", "completed_at"}

func TestDeletions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresDeletionRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_deletions (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM account_deletions WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(deletionCols).AddRow("u1", "{profile,notes}", "", now, nil))
	mock.ExpectExec(regexp.QuoteMeta(`array_append(completed_steps, $2)`)).
		WithArgs("u1", "files").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE account_deletions SET last_error = $2 WHERE user_id = $1`)).
		WithArgs("u1", "storage: boom").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE account_deletions SET completed_at = now()`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE completed_at IS NULL ORDER BY started_at`)).
		WillReturnRows(sqlmock.NewRows(deletionCols).AddRow("u2", "{}", "auth: boom", now, nil))

	d, err := repo.StartDeletion(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"profile", "notes"}, d.CompletedSteps)
	assert.Nil(t, d.CompletedAt)

	require.NoError(t, repo.MarkStepDone(context.Background(), "u1", "files"))
	require.NoError(t, repo.SetLastError(context.Background(), "u1", "storage: boom"))
	require.NoError(t, repo.CompleteDeletion(context.Background(), "u1"))

	pending, err := repo.ListPendingDeletions(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "u2", pending[0].UserID)
	assert.Equal(t, "auth: boom", pending[0].LastError)
}

func TestGetDeletion_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM account_deletions WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresDeletionRepository(db).GetDeletion(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
