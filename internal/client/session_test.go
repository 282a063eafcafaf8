package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

// fakeAuthServer accepts "good-token" on /api/auth/me and issues it on login.
func fakeAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(types.AuthResponse{
				User:  types.User{ID: 1, Email: "ada@example.com", Name: "Ada"},
				Token: "good-token",
			})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid or expired token."}`))
				return
			}
			_ = json.NewEncoder(w).Encode(types.User{ID: 1, Email: "ada@example.com", Name: "Ada"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCreds(t *testing.T, path, token string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	b, err := json.Marshal(Credentials{Token: token})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
}

func TestSessionLoginPersistsToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	srv := fakeAuthServer(t)
	path := filepath.Join(t.TempDir(), ".tracker", "credentials.json")

	s := NewSession(New(srv.URL), path)
	u, err := s.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "good-token", s.Client().Token())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	restored := NewSession(New(srv.URL), path)
	u, ok := restored.Restore(context.Background())
	require.True(t, ok)
	assert.Equal(t, int64(1), u.ID)

	require.NoError(t, restored.Logout())
	assert.Empty(t, restored.Client().Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionRestoreDiscardsRejectedToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	srv := fakeAuthServer(t)
	path := filepath.Join(t.TempDir(), "credentials.json")
	writeCreds(t, path, "stale-token")

	s := NewSession(New(srv.URL), path)
	u, ok := s.Restore(context.Background())
	assert.False(t, ok)
	assert.Nil(t, u)
	assert.Nil(t, s.User())
	assert.Empty(t, s.Client().Token())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionRestoreWithoutCredentials(t *testing.T) {
	t.Setenv(TokenEnv, "")
	srv := fakeAuthServer(t)

	s := NewSession(New(srv.URL), filepath.Join(t.TempDir(), "missing.json"))
	_, ok := s.Restore(context.Background())
	assert.False(t, ok)
}

func TestSessionEnvOverridesFile(t *testing.T) {
	srv := fakeAuthServer(t)
	path := filepath.Join(t.TempDir(), "credentials.json")
	writeCreds(t, path, "stale-token")
	t.Setenv(TokenEnv, "Bearer good-token")

	s := NewSession(New(srv.URL), path)
	_, ok := s.Restore(context.Background())
	require.True(t, ok)
	assert.Equal(t, "good-token", s.Client().Token())

	// A stored file is left alone when the env token is in use.
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSessionRestoreUnreachableServer(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := filepath.Join(t.TempDir(), "credentials.json")
	writeCreds(t, path, "good-token")

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewSession(New(url), path)
	_, ok := s.Restore(context.Background())
	assert.False(t, ok)
	assert.Empty(t, s.Client().Token())
}
