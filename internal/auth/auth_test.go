package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testParams = &Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_Verify(t *testing.T) {
	hash, err := HashPassword("correct horse", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.NoError(t, VerifyPassword("correct horse", hash))
	assert.ErrorIs(t, VerifyPassword("wrong horse", hash), ErrMismatchedPassword)

	other, err := HashPassword("correct horse", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPassword_BadHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty", "", ErrInvalidHash},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv", ErrInvalidHash},
		{"version", "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrIncompatibleVersion},
		{"params", "$argon2id$v=19$m=x$c2FsdA$aGFzaA", ErrInvalidHash},
		{"salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, VerifyPassword("x", tt.hash), tt.want)
		})
	}
}

func TestTokenManager_IssueParse(t *testing.T) {
	tm, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	tok, exp, err := tm.Issue("user-1", "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm, _ := NewTokenManager("secret", time.Hour)
	other, _ := NewTokenManager("other", time.Hour)

	tok, _, err := other.Issue("user-1", "sess-1")
	require.NoError(t, err)
	_, err = tm.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: issuer},
		SessionID:        "sess-1",
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a token without a session is useless
	noSid, _, err := tm.Issue("user-1", "")
	require.NoError(t, err)
	_, err = tm.Parse(noSid)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	tm, _ := NewTokenManager("secret", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := tm.Issue("user-1", "sess-1")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestOAuthProvider_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "g-1", "email": "a@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
		UserInfoEndpoint: srv.URL + "/userinfo",
	}

	assert.Contains(t, p.AuthURL("st-1"), "state=st-1")

	info, err := p.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", info.Email)
	assert.Equal(t, "g-1", info.ProviderUserID)

	_, err = p.Exchange(context.Background(), "bad")
	assert.Error(t, err)
}

func TestNewGoogleProvider(t *testing.T) {
	p := NewGoogleProvider("id", "secret", "http://localhost/cb")
	assert.Equal(t, GoogleUserInfoEndpoint, p.UserInfoEndpoint)
	assert.Contains(t, p.AuthURL("s"), "accounts.google.com")
}
