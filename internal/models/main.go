// Package models defines the core data structures for users, their profile
// and the vault entities (notes, passwords, files).
package models

import "time"

// User represents an account known to the authentication collaborator.
type User struct {
	// ID is the stable account identifier. It is also the key material
	// for every sealed field owned by the user.
	ID string `json:"id"`
	// Email is the login name.
	Email string `json:"email"`
	// PasswordHash is the argon2id hash of the password; empty for
	// accounts created through OAuth.
	PasswordHash string `json:"-"`
	// Provider is "password" or the OAuth provider name.
	Provider string `json:"provider"`
	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// Profile stores the one-time code of a user.
type Profile struct {
	// UserID owns the profile.
	UserID string
	// OneTimeCode is the sealed 6-digit code. Empty if never generated.
	OneTimeCode string
	// CodeShown is set once the client acknowledged displaying the code.
	CodeShown bool
	// CodeGeneratedAt is when OneTimeCode was generated.
	CodeGeneratedAt *time.Time
}

// Note is a rich note. Content is sealed at rest.
type Note struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle"`
	Content         string     `json:"content"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	BackgroundColor string     `json:"background_color"`
	FontFamily      string     `json:"font_family"`
	FontSize        string     `json:"font_size"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	// Undecryptable marks a note whose content could not be unsealed.
	// Content is empty in that case.
	Undecryptable bool `json:"undecryptable,omitempty"`
}

// Password is a stored credential. Password is sealed at rest and is only
// populated in API responses while the entry is revealed.
type Password struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Username      string    `json:"username"`
	Password      string    `json:"password,omitempty"`
	URL           string    `json:"url"`
	Category      string    `json:"category"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Revealed      bool      `json:"revealed"`
	Undecryptable bool      `json:"undecryptable,omitempty"`
}

// File is the metadata row of an uploaded object.
type File struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountDeletion is the persisted checklist of an account deletion.
type AccountDeletion struct {
	UserID         string
	CompletedSteps []string
	LastError      string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// NoteView selects which lifecycle bucket of notes to list.
type NoteView string

const (
	// ActiveNotes are neither archived nor trashed.
	ActiveNotes NoteView = "active"
	// ArchivedNotes are archived and not trashed.
	ArchivedNotes NoteView = "archived"
	// TrashedNotes are in the trash, archived or not.
	TrashedNotes NoteView = "trash"
)

// NoteInput is the payload for creating a note.
type NoteInput struct {
	Title           string   `json:"title" validate:"max=500"`
	Subtitle        string   `json:"subtitle" validate:"max=500"`
	Content         string   `json:"content"`
	Category        string   `json:"category" validate:"max=100"`
	Tags            []string `json:"tags" validate:"max=50,dive,max=50"`
	BackgroundColor string   `json:"background_color" validate:"omitempty,hexcolor"`
	FontFamily      string   `json:"font_family" validate:"max=100"`
	FontSize        string   `json:"font_size" validate:"max=10"`
}

// NoteUpdate changes only the fields that are non-nil.
type NoteUpdate struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,max=500"`
	Subtitle        *string   `json:"subtitle,omitempty" validate:"omitempty,max=500"`
	Content         *string   `json:"content,omitempty"`
	Category        *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags            *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=50"`
	BackgroundColor *string   `json:"background_color,omitempty" validate:"omitempty,hexcolor"`
	FontFamily      *string   `json:"font_family,omitempty" validate:"omitempty,max=100"`
	FontSize        *string   `json:"font_size,omitempty" validate:"omitempty,max=10"`
}

// Empty reports whether the update carries no field.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Subtitle == nil && u.Content == nil && u.Category == nil &&
		u.Tags == nil && u.BackgroundColor == nil && u.FontFamily == nil && u.FontSize == nil
}

// PasswordInput is the payload for creating a password entry.
type PasswordInput struct {
	Title    string `json:"title" validate:"required,max=500"`
	Username string `json:"username" validate:"required,max=500"`
	Password string `json:"password" validate:"required"`
	URL      string `json:"url" validate:"omitempty,url"`
	Category string `json:"category" validate:"max=100"`
	Notes    string `json:"notes"`
}

// PasswordUpdate changes only the fields that are non-nil.
type PasswordUpdate struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Username *string `json:"username,omitempty" validate:"omitempty,max=500"`
	Password *string `json:"password,omitempty"`
	URL      *string `json:"url,omitempty" validate:"omitempty,max=2048"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty"`
}

// Empty reports whether the update carries no field.
func (u PasswordUpdate) Empty() bool {
	return u.Title == nil && u.Username == nil && u.Password == nil &&
		u.URL == nil && u.Category == nil && u.Notes == nil
}

// FileUpdate changes only the fields that are non-nil.
type FileUpdate struct {
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty"`
}

// Empty reports whether the update carries no field.
func (u FileUpdate) Empty() bool {
	return u.Category == nil && u.Notes == nil
}

// Credentials is the payload of sign-up and sign-in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=256"`
}
