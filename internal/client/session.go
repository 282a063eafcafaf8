package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

const (
	credDirName  = ".tracker"
	credFileName = "credentials.json"

	// TokenEnv overrides the stored credentials when set.
	TokenEnv = "TRACKER_TOKEN"
)

// Credentials is the on-disk session.
type Credentials struct {
	Token   string    `json:"token"`
	Email   string    `json:"email"`
	SavedAt time.Time `json:"saved_at"`
}

// DefaultCredentialsPath is ~/.tracker/credentials.json.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, credDirName, credFileName), nil
}

// Session persists the client's token between runs.
type Session struct {
	client *Client
	path   string
	user   *types.User
}

func NewSession(c *Client, path string) *Session {
	return &Session{client: c, path: path}
}

func (s *Session) Client() *Client { return s.client }

// User is the authenticated user, or nil when logged out.
func (s *Session) User() *types.User { return s.user }

func stripBearer(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 7 && strings.EqualFold(s[:7], "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

func (s *Session) load() (token string, fromEnv bool) {
	if env := stripBearer(os.Getenv(TokenEnv)); env != "" {
		return env, true
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	var creds Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return "", false
	}
	return stripBearer(creds.Token), false
}

// Restore loads the stored token and revalidates it against /api/auth/me.
// Any failure drops the token and leaves the session logged out.
func (s *Session) Restore(ctx context.Context) (*types.User, bool) {
	token, fromEnv := s.load()
	if token == "" {
		return nil, false
	}

	s.client.SetToken(token)
	u, err := s.client.Me(ctx)
	if err != nil {
		s.client.SetToken("")
		s.user = nil
		if !fromEnv {
			_ = s.remove()
		}
		return nil, false
	}
	s.user = u
	return u, true
}

func (s *Session) Login(ctx context.Context, email, password string) (*types.User, error) {
	resp, err := s.client.Login(ctx, types.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.adopt(resp)
}

func (s *Session) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.adopt(resp)
}

func (s *Session) adopt(resp *types.AuthResponse) (*types.User, error) {
	s.client.SetToken(resp.Token)
	s.user = &resp.User
	if err := s.save(Credentials{Token: resp.Token, Email: resp.User.Email, SavedAt: time.Now().UTC()}); err != nil {
		return &resp.User, fmt.Errorf("save credentials: %w", err)
	}
	return &resp.User, nil
}

// Logout forgets the token in memory and on disk.
func (s *Session) Logout() error {
	s.client.SetToken("")
	s.user = nil
	return s.remove()
}

func (s *Session) save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(s.path, 0o600)
}

func (s *Session) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
