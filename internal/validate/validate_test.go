package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palamut62/my-notes/internal/models"
)

func strPtr(s string) *string { return &s }

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		wantErr string
	}{
		{"password ok", models.PasswordInput{Title: "t", Username: "u", Password: "p"}, ""},
		{"password missing title", models.PasswordInput{Username: "u", Password: "p"}, "field 'title' is required"},
		{"password missing secret", models.PasswordInput{Title: "t", Username: "u"}, "field 'password' is required"},
		{"password bad url", models.PasswordInput{Title: "t", Username: "u", Password: "p", URL: "nope"}, "field 'url' must be a valid URL"},
		{"note bad color", models.NoteInput{BackgroundColor: "white"}, "field 'background_color' must be a hex color"},
		{"note ok", models.NoteInput{Title: "x", BackgroundColor: "#fff"}, ""},
		{"update long title", models.PasswordUpdate{Title: strPtr(string(make([]byte, 501)))}, "field 'title' must be at most 500 characters long"},
		{"update clears url", models.PasswordUpdate{URL: strPtr("")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
