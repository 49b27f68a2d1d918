package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/objectstore"
	"github.com/palamut62/my-notes/internal/repository"
)

func upload(name, body string) Upload {
	return Upload{Name: name, ContentType: "text/plain", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestFileService_UploadDownloadDelete(t *testing.T) {
	repo := newFakeFiles()
	store := objectstore.NewMemory()
	svc := NewFileService(repo, store, zap.NewNop())
	ctx := context.Background()

	f, err := svc.Upload(ctx, "u1", upload("notes.txt", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "u1/notes.txt", f.Path)
	assert.EqualValues(t, 5, f.Size)

	got, rc, err := svc.Download(ctx, "u1", f.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "notes.txt", got.Name)

	_, _, err = svc.Download(ctx, "u2", f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "u1", f.ID))
	ok, _ := store.Exists(ctx, "u1/notes.txt")
	assert.False(t, ok)
	assert.Empty(t, repo.files)
}

func TestFileService_NoOverwrite(t *testing.T) {
	store := objectstore.NewMemory()
	svc := NewFileService(newFakeFiles(), store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", upload("a.txt", "one"))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, "u1", upload("a.txt", "two"))
	assert.ErrorIs(t, err, ErrFileExists)

	rc, err := store.Get(ctx, "u1/a.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(data))

	// same name for another user is fine
	_, err = svc.Upload(ctx, "u2", upload("a.txt", "three"))
	assert.NoError(t, err)
}

func TestFileService_CompensatesFailedMetadata(t *testing.T) {
	repo := newFakeFiles()
	repo.createErr = errBoom
	store := objectstore.NewMemory()
	core, logs := observer.New(zap.ErrorLevel)
	svc := NewFileService(repo, store, zap.New(core))
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", upload("a.txt", "data"))
	require.ErrorIs(t, err, errBoom)

	ok, _ := store.Exists(ctx, "u1/a.txt")
	assert.False(t, ok, "orphaned object must be removed")
	assert.Equal(t, 0, logs.Len())

	repo.createErr = repository.ErrConflict
	_, err = svc.Upload(ctx, "u1", upload("a.txt", "data"))
	assert.ErrorIs(t, err, ErrFileExists)
	ok, _ = store.Exists(ctx, "u1/a.txt")
	assert.False(t, ok)
}

func TestFileService_BadNames(t *testing.T) {
	svc := NewFileService(newFakeFiles(), objectstore.NewMemory(), zap.NewNop())
	for _, name := range []string{"", "  ", ".", "..", "a/b.txt", `a\b.txt`, "../etc"} {
		_, err := svc.Upload(context.Background(), "u1", Upload{Name: name, Body: bytes.NewReader(nil)})
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestFileService_Update(t *testing.T) {
	svc := NewFileService(newFakeFiles(), objectstore.NewMemory(), zap.NewNop())
	ctx := context.Background()

	f, err := svc.Upload(ctx, "u1", upload("a.txt", "x"))
	require.NoError(t, err)

	cat := "docs"
	got, err := svc.Update(ctx, "u1", f.ID, models.FileUpdate{Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Category)

	_, err = svc.Update(ctx, "u1", f.ID, models.FileUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "docs", list[0].Category)
}
