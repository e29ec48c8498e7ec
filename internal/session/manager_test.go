package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/connectivity"
	"github.com/askvara/vara-go/internal/crypto"
	"github.com/askvara/vara-go/internal/domain"
	"github.com/askvara/vara-go/internal/store"
)

// fakeRepo is an in-memory domain.SessionRepository.
type fakeRepo struct {
	mu      sync.Mutex
	session domain.Session
	failGet bool
}

func (f *fakeRepo) Get(context.Context) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return domain.Session{}, fmt.Errorf("storage unavailable")
	}
	return f.session, nil
}

func (f *fakeRepo) Save(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = session
	return nil
}

func (f *fakeRepo) UpdateTokens(_ context.Context, accessToken, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session.AccessToken = accessToken
	if refreshToken != "" {
		f.session.RefreshToken = refreshToken
	}
	return nil
}

func (f *fakeRepo) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = domain.Session{}
	return nil
}

func (f *fakeRepo) current() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func authResponse(w http.ResponseWriter, token, refreshToken string) {
	json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"id":        "u-1",
				"firstName": "Ada",
				"lastName":  "Lovelace",
				"email":     "ada@example.com",
				"provider":  "local",
			},
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

func newManager(t *testing.T, handler http.Handler, repo domain.SessionRepository) (*Manager, *api.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := api.New(server.URL, connectivity.NewStatic(true))
	manager := NewManager(client, repo, OAuthSettings{})
	client.SetCredentials(manager)
	return manager, client
}

func TestManager_LoginPersistsSession(t *testing.T) {
	repo := &fakeRepo{}
	manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "pw", body["password"])

		authResponse(w, "t1", "r1")
	}), repo)

	user, err := manager.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	session := repo.current()
	assert.Equal(t, user, session.User)
	assert.Equal(t, "t1", session.AccessToken)
	assert.Equal(t, "r1", session.RefreshToken)
}

func TestManager_LoginFailureUsesServerMessage(t *testing.T) {
	repo := &fakeRepo{}
	manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}), repo)

	// /auth/login is requested without a stored token, so the 401 passes
	// through the refresh branch: no refresh token means session expiry.
	_, err := manager.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, repo.current().Empty())
}

func TestManager_RegisterPersistsSession(t *testing.T) {
	repo := &fakeRepo{}
	manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)

		var body RegisterParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body.FirstName)

		authResponse(w, "t1", "r1")
	}), repo)

	user, err := manager.Register(context.Background(), RegisterParams{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "t1", repo.current().AccessToken)
}

func TestManager_LoginRoundTripWithSQLiteStore(t *testing.T) {
	repo, err := store.Open(filepath.Join(t.TempDir(), "session.db"), crypto.Noop{})
	require.NoError(t, err)
	defer repo.Close()

	manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			authResponse(w, "t1", "r1")
		case "/auth/verify":
			assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
			w.Write([]byte(`{"success":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), repo)

	ctx := context.Background()
	loggedIn, err := manager.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	current := manager.CurrentUser(ctx)
	require.NotNil(t, current)
	assert.Equal(t, loggedIn, current)
}

func TestManager_CurrentUser(t *testing.T) {
	t.Run("no stored session", func(t *testing.T) {
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}), &fakeRepo{})

		assert.Nil(t, manager.CurrentUser(context.Background()))
	})

	t.Run("storage failure resolves to nil", func(t *testing.T) {
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}), &fakeRepo{failGet: true})

		assert.Nil(t, manager.CurrentUser(context.Background()))
	})

	t.Run("verification rejection clears the session", func(t *testing.T) {
		repo := &fakeRepo{session: domain.Session{
			User:        &domain.User{ID: "u-1"},
			AccessToken: "stale",
		}}
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"bad token"}`))
		}), repo)

		assert.Nil(t, manager.CurrentUser(context.Background()))
		assert.True(t, repo.current().Empty())
	})
}

func TestManager_Token(t *testing.T) {
	repo := &fakeRepo{session: domain.Session{User: &domain.User{ID: "u-1"}, AccessToken: "tok"}}
	manager := NewManager(nil, repo, OAuthSettings{})

	assert.Equal(t, "tok", manager.Token(context.Background()))

	repo.failGet = true
	assert.Empty(t, manager.Token(context.Background()))
}

func TestManager_RefreshAccessToken(t *testing.T) {
	t.Run("no refresh token skips the server", func(t *testing.T) {
		requests := 0
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}), &fakeRepo{})

		assert.Empty(t, manager.RefreshAccessToken(context.Background()))
		assert.Zero(t, requests)
	})

	t.Run("success persists rotated tokens", func(t *testing.T) {
		repo := &fakeRepo{session: domain.Session{
			User:         &domain.User{ID: "u-1"},
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
		}}
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/refresh", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "old-refresh", body["refreshToken"])

			w.Write([]byte(`{"data":{"token":"new-access","refreshToken":"new-refresh"}}`))
		}), repo)

		got := manager.RefreshAccessToken(context.Background())
		assert.Equal(t, "new-access", got)

		session := repo.current()
		assert.Equal(t, "new-access", session.AccessToken)
		assert.Equal(t, "new-refresh", session.RefreshToken)
		assert.Equal(t, "u-1", session.User.ID)
	})

	t.Run("server rejection leaves stored tokens untouched", func(t *testing.T) {
		repo := &fakeRepo{session: domain.Session{
			User:         &domain.User{ID: "u-1"},
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
		}}
		manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid refresh token"}`))
		}), repo)

		assert.Empty(t, manager.RefreshAccessToken(context.Background()))

		session := repo.current()
		assert.Equal(t, "old-access", session.AccessToken)
		assert.Equal(t, "old-refresh", session.RefreshToken)
	})
}

func TestManager_LogoutClearsEvenWhenServerFails(t *testing.T) {
	repo := &fakeRepo{session: domain.Session{
		User:         &domain.User{ID: "u-1"},
		AccessToken:  "tok",
		RefreshToken: "ref",
	}}
	manager, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"backend down"}`))
	}), repo)

	ctx := context.Background()
	require.NoError(t, manager.Logout(ctx))

	assert.True(t, repo.current().Empty())
	assert.Empty(t, manager.Token(ctx))
	assert.Nil(t, manager.CurrentUser(ctx))
}

// TestPipeline_RefreshRetryEndToEnd exercises the full 401 path with the
// manager wired in as the pipeline's credential source.
func TestPipeline_RefreshRetryEndToEnd(t *testing.T) {
	repo := &fakeRepo{session: domain.Session{
		User:         &domain.User{ID: "u-1"},
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
	}}

	var mu sync.Mutex
	var chatTokens []string
	_, client := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat":
			mu.Lock()
			chatTokens = append(chatTokens, r.Header.Get("Authorization"))
			mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"expired"}`))
				return
			}
			w.Write([]byte(`{"data":[{"id":"c1"}]}`))
		case "/auth/refresh":
			w.Write([]byte(`{"data":{"token":"fresh"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), repo)

	env, err := client.Get(context.Background(), "/chat")
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, chatTokens)
	assert.Equal(t, "fresh", repo.current().AccessToken)
	assert.Equal(t, "refresh-1", repo.current().RefreshToken, "unrotated refresh token survives")
}

// TestPipeline_SessionExpiryEndToEnd drives the refresh-failure branch: the
// session is cleared and Token afterwards returns absent.
func TestPipeline_SessionExpiryEndToEnd(t *testing.T) {
	repo := &fakeRepo{session: domain.Session{
		User:         &domain.User{ID: "u-1"},
		AccessToken:  "stale",
		RefreshToken: "dead-refresh",
	}}

	chatAttempts := 0
	manager, client := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat":
			chatAttempts++
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"expired"}`))
		case "/auth/refresh":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid refresh token"}`))
		case "/auth/logout":
			w.Write([]byte(`{"success":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), repo)

	_, err := client.Get(context.Background(), "/chat")
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	assert.Equal(t, 1, chatAttempts, "exactly one network attempt before expiry")
	assert.True(t, repo.current().Empty())
	assert.Empty(t, manager.Token(context.Background()))
}
