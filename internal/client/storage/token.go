// Package storage keeps the client's local state (the session token) and
// reads user input from the terminal.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoSession is returned by Load when nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// Session is what the client remembers between invocations.
type Session struct {
	Server    string    `json:"server"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore saves the session in a file readable only by its owner.
type TokenStore struct {
	Path string
}

// DefaultTokenPath returns ~/.config/my-notes/session.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "my-notes", "session.json"), nil
}

// Load reads the saved session. An expired session counts as none.
func (s *TokenStore) Load() (*Session, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	defer f.Close()

	var sess Session
	if err := json.NewDecoder(f).Decode(&sess); err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if sess.Token == "" || (!sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt)) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes sess with 0600 permissions, creating the directory.
func (s *TokenStore) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(sess)
}

// Clear forgets the session. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
