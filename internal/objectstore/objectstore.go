// Package objectstore keeps uploaded file contents. Keys are
// "<user id>/<file name>".
package objectstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("object already exists")
	// ErrNotFound is returned for a missing key.
	ErrNotFound = errors.New("object not found")
)

// Store is a flat key/value blob store.
type Store interface {
	// Put stores body under key and never overwrites.
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// DeletePrefix removes every object under prefix and returns how many
// were removed.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
