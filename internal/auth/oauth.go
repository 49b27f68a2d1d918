package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoEndpoint returns the profile of the token owner.
const GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserInfo is what a provider tells us about the account.
type UserInfo struct {
	ProviderUserID string
	Email          string
}

// Provider is an OAuth2 authorization-code provider.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*UserInfo, error)
}

// OAuthProvider implements Provider on top of oauth2.Config.
type OAuthProvider struct {
	Config           *oauth2.Config
	UserInfoEndpoint string
}

// NewGoogleProvider returns the Google provider.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		UserInfoEndpoint: GoogleUserInfoEndpoint,
	}
}

func (p *OAuthProvider) AuthURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the
// account's user info with it.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := p.Config.Client(ctx, token).Get(p.UserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info status: %s", resp.Status)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("user info has no email")
	}
	return &UserInfo{ProviderUserID: info.ID, Email: info.Email}, nil
}
