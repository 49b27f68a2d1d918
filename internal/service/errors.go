// Package service implements the vault's business logic over repository
// interfaces: notes, passwords with their reveal gates, files,
// authentication and account deletion.
package service

import (
	"errors"
	"fmt"

	"github.com/palamut62/my-notes/internal/repository"
)

var (
	// ErrNotFound is returned when an item does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps payload validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned for a missing, invalid or expired
	// session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by SignIn for a bad email or
	// password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrIncorrectPassword is returned when re-authentication fails.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrEmailTaken is returned by SignUp for a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrFileExists is returned when an upload would overwrite a file.
	ErrFileExists = errors.New("file already exists")
	// ErrUnknownProvider is returned for an OAuth provider that is not
	// configured.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrDeletionIncomplete is returned when some deletion step failed.
	// The account stays usable and the deletion can be retried.
	ErrDeletionIncomplete = errors.New("failed to delete account completely")
	// ErrAdminNotConfigured is returned when the account record cannot be
	// removed for lack of service credentials.
	ErrAdminNotConfigured = errors.New("service role key is not configured")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
