package domain

import "context"

// Session is the persisted tuple representing a logged-in identity.
// Invariant: AccessToken present implies User present. The repository writes
// and clears all three fields as a unit so the invariant holds across crashes.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no identity is persisted.
func (s Session) Empty() bool {
	return s.User == nil && s.AccessToken == "" && s.RefreshToken == ""
}

type SessionRepository interface {
	Get(ctx context.Context) (Session, error)
	// Save replaces the whole session atomically.
	Save(ctx context.Context, session Session) error
	// UpdateTokens replaces the access token, and the refresh token when
	// refreshToken is non-empty, leaving the user record untouched.
	UpdateTokens(ctx context.Context, accessToken, refreshToken string) error
	Clear(ctx context.Context) error
}
