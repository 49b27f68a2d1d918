// Package repository provides the PostgreSQL persistence of the vault:
// accounts, profiles, notes, passwords, file metadata and the account
// deletion checklist.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches the id and owner.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a row.
	ErrConflict = errors.New("already exists")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
