package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/askvara/vara-go/internal/domain"
)

// Provider is the closed set of supported OAuth identity providers. Passing a
// value outside this set is a programming error and panics rather than being
// reported as a runtime failure.
type Provider int

const (
	Google Provider = iota
	Microsoft
)

func (p Provider) String() string {
	switch p {
	case Google:
		return "google"
	case Microsoft:
		return "microsoft"
	}
	panic(fmt.Sprintf("unsupported provider %d", int(p)))
}

// ParseProvider maps user input onto the provider set.
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "google":
		return Google, nil
	case "microsoft":
		return Microsoft, nil
	}
	return 0, fmt.Errorf("unsupported provider %q (expected google or microsoft)", s)
}

// OAuthSettings carries the per-installation OAuth client configuration.
type OAuthSettings struct {
	GoogleClientID    string
	MicrosoftClientID string
	RedirectURI       string
}

var (
	googleEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	microsoftEndpoint = oauth2.Endpoint{
		AuthURL:  "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		TokenURL: "https://login.microsoftonline.com/common/oauth2/v2.0/token",
	}
)

// oauthConfig selects the provider's OAuth2 configuration by exhaustive match.
func (m *Manager) oauthConfig(p Provider) oauth2.Config {
	scopes := []string{"openid", "profile", "email"}

	switch p {
	case Google:
		return oauth2.Config{
			ClientID:    m.oauth.GoogleClientID,
			RedirectURL: m.oauth.RedirectURI,
			Scopes:      scopes,
			Endpoint:    googleEndpoint,
		}
	case Microsoft:
		return oauth2.Config{
			ClientID:    m.oauth.MicrosoftClientID,
			RedirectURL: m.oauth.RedirectURI,
			Scopes:      scopes,
			Endpoint:    microsoftEndpoint,
		}
	}
	panic(fmt.Sprintf("unsupported provider %d", int(p)))
}

// AuthCodeURL builds the provider's authorization URL. The interactive
// browser step happens outside the SDK; the resulting code comes back through
// CompleteProviderLogin.
func (m *Manager) AuthCodeURL(p Provider, state string) string {
	cfg := m.oauthConfig(p)

	switch p {
	case Google:
		return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	case Microsoft:
		return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "query"))
	}
	panic(fmt.Sprintf("unsupported provider %d", int(p)))
}

// CompleteProviderLogin exchanges the provider's authorization code with the
// backend and persists the resulting session.
func (m *Manager) CompleteProviderLogin(ctx context.Context, p Provider, code string) (*domain.User, error) {
	env, err := m.client.Post(ctx, "/auth/"+p.String()+"/callback", map[string]string{
		"code": code,
	})
	if err != nil {
		return nil, err
	}
	return m.adoptSession(ctx, env, p.String()+" authentication failed")
}
