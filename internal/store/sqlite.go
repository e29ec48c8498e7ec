// Package store persists the session in a local SQLite database. The user
// record is stored in the clear; token columns pass through the configured
// cipher, preserving the original's general-store/secure-store split.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/askvara/vara-go/internal/crypto"
	"github.com/askvara/vara-go/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	user_json TEXT NOT NULL DEFAULT '',
	access_token TEXT NOT NULL DEFAULT '',
	refresh_token TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// SessionStore implements domain.SessionRepository on a single-row table.
type SessionStore struct {
	db     *sql.DB
	cipher crypto.Cipher
}

// Open creates the database file (and parent directory) if needed and ensures
// the schema exists.
func Open(path string, cipher crypto.Cipher) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	return &SessionStore{db: db, cipher: cipher}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Get returns the persisted session. An absent or undecryptable session comes
// back empty, never as an error a caller would have to special-case.
func (s *SessionStore) Get(ctx context.Context) (domain.Session, error) {
	var userJSON, accessToken, refreshToken string
	row := s.db.QueryRowContext(ctx, "SELECT user_json, access_token, refresh_token FROM session WHERE id = 1")
	if err := row.Scan(&userJSON, &accessToken, &refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var session domain.Session
	if userJSON != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return domain.Session{}, fmt.Errorf("failed to parse stored user: %w", err)
		}
		session.User = &user
	}

	if accessToken != "" {
		token, err := s.cipher.Open(accessToken)
		if err != nil {
			return domain.Session{}, fmt.Errorf("failed to decrypt access token: %w", err)
		}
		session.AccessToken = token
	}
	if refreshToken != "" {
		token, err := s.cipher.Open(refreshToken)
		if err != nil {
			return domain.Session{}, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		session.RefreshToken = token
	}

	return session, nil
}

// Save replaces the whole session in one transaction.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if session.AccessToken != "" && session.User == nil {
		return fmt.Errorf("refusing to persist an access token without a user")
	}

	userJSON := ""
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = string(data)
	}

	accessToken, err := s.sealNonEmpty(session.AccessToken)
	if err != nil {
		return err
	}
	refreshToken, err := s.sealNonEmpty(session.RefreshToken)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session (id, user_json, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT (id) DO UPDATE SET
			user_json = excluded.user_json,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`, userJSON, accessToken, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UpdateTokens replaces the access token, and the refresh token when rotated,
// leaving the stored user untouched.
func (s *SessionStore) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	sealed, err := s.sealNonEmpty(accessToken)
	if err != nil {
		return err
	}

	if refreshToken == "" {
		_, err = s.db.ExecContext(ctx,
			"UPDATE session SET access_token = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = 1", sealed)
	} else {
		var sealedRefresh string
		sealedRefresh, err = s.sealNonEmpty(refreshToken)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			"UPDATE session SET access_token = ?, refresh_token = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = 1", sealed, sealedRefresh)
	}
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	return nil
}

// Clear removes all session fields as a unit.
func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) sealNonEmpty(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	sealed, err := s.cipher.Seal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return sealed, nil
}
