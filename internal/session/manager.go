// Package session owns the persisted identity: who is logged in, with which
// tokens, and how that state changes on login, refresh, and logout. It is the
// request pipeline's credential source.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/domain"
)

// Manager is the single source of truth for the session. All persisted writes
// go through the repository as atomic units so a token is never stored
// without its user.
type Manager struct {
	client *api.Client
	repo   domain.SessionRepository
	oauth  OAuthSettings
}

var _ api.CredentialSource = (*Manager)(nil)

func NewManager(client *api.Client, repo domain.SessionRepository, oauth OAuthSettings) *Manager {
	return &Manager{client: client, repo: repo, oauth: oauth}
}

// authPayload is the shape of every auth endpoint's data field.
type authPayload struct {
	User         *domain.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

// Login authenticates with email and password and persists the resulting
// session, replacing any prior one.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	env, err := m.client.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return m.adoptSession(ctx, env, "Login failed")
}

type RegisterParams struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates an account and persists the resulting session.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	env, err := m.client.Post(ctx, "/auth/register", params)
	if err != nil {
		return nil, err
	}
	return m.adoptSession(ctx, env, "Registration failed")
}

// CurrentUser returns the persisted user after verifying the stored access
// token with the server. Every failure path resolves to nil with the session
// cleared; callers never see an error.
func (m *Manager) CurrentUser(ctx context.Context) *domain.User {
	session, err := m.repo.Get(ctx)
	if err != nil {
		slog.Warn("Failed to read stored session", "error", err)
		m.clearSession(ctx)
		return nil
	}

	if session.User == nil || session.AccessToken == "" {
		m.clearSession(ctx)
		return nil
	}

	env, err := m.client.Get(ctx, "/auth/verify")
	if err != nil || !env.Success {
		m.clearSession(ctx)
		return nil
	}

	return session.User
}

// Token returns the persisted access token, or "" on any failure.
func (m *Manager) Token(ctx context.Context) string {
	session, err := m.repo.Get(ctx)
	if err != nil {
		slog.Warn("Failed to read access token", "error", err)
		return ""
	}
	return session.AccessToken
}

// RefreshAccessToken exchanges the persisted refresh token for a new access
// token, persisting the result. It returns "" on any failure, leaving the
// previously persisted values untouched; the caller decides whether that
// means the session is over.
func (m *Manager) RefreshAccessToken(ctx context.Context) string {
	session, err := m.repo.Get(ctx)
	if err != nil || session.RefreshToken == "" {
		return ""
	}

	env, err := m.client.Post(ctx, "/auth/refresh", map[string]string{
		"refreshToken": session.RefreshToken,
	}, api.WithoutAuthRetry(), api.WithoutOfflineQueue())
	if err != nil || !env.Success {
		return ""
	}

	var payload authPayload
	if err := env.Decode(&payload); err != nil || payload.Token == "" {
		return ""
	}

	if err := m.repo.UpdateTokens(ctx, payload.Token, payload.RefreshToken); err != nil {
		slog.Warn("Failed to persist refreshed tokens", "error", err)
		return ""
	}

	return payload.Token
}

// Expire is the pipeline's terminal 401 handler: log out and clear.
func (m *Manager) Expire(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		slog.Warn("Failed to clear expired session", "error", err)
	}
}

// Logout tells the server best-effort and then unconditionally clears the
// persisted session. A failing or unreachable logout endpoint never keeps the
// local session alive.
func (m *Manager) Logout(ctx context.Context) error {
	env, err := m.client.Post(ctx, "/auth/logout", nil, api.WithoutAuthRetry(), api.WithoutOfflineQueue())
	if err != nil {
		slog.Warn("Logout request failed", "error", err)
	} else if !env.Success {
		slog.Warn("Logout request rejected", "error", env.Error)
	}

	return m.repo.Clear(ctx)
}

// adoptSession persists the user and tokens from a successful auth response
// as one unit and returns the user.
func (m *Manager) adoptSession(ctx context.Context, env api.Envelope, fallback string) (*domain.User, error) {
	if !env.Success {
		message := env.Error
		if message == "" {
			message = fallback
		}
		return nil, fmt.Errorf("%s", message)
	}

	var payload authPayload
	if err := env.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w", fallback, err)
	}
	if payload.User == nil || payload.Token == "" {
		return nil, fmt.Errorf("%s: incomplete auth response", fallback)
	}

	err := m.repo.Save(ctx, domain.Session{
		User:         payload.User,
		AccessToken:  payload.Token,
		RefreshToken: payload.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return payload.User, nil
}

func (m *Manager) clearSession(ctx context.Context) {
	if err := m.repo.Clear(ctx); err != nil {
		slog.Warn("Failed to clear session", "error", err)
	}
}
