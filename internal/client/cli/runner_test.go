package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-item-tracker/config"
	"github.com/FACorreiaa/go-item-tracker/internal/client"
	"github.com/FACorreiaa/go-item-tracker/internal/container"
	"github.com/FACorreiaa/go-item-tracker/internal/router"
)

type harness struct {
	t        *testing.T
	url      string
	credPath string
}

// newHarness serves the full API over the in-memory store.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(client.TokenEnv, "")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{SecretKey: "cli-test-secret", Issuer: "item-tracker", TTL: time.Hour}
	c, err := container.NewInMemory(cfg, logger, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(router.SetupRouter(&router.Config{
		AuthHandler:   c.AuthHandler,
		ItemHandler:   c.ItemHandler,
		HealthHandler: c.HealthHandler,
		Verifier:      c.Tokens,
		Logger:        logger,
	}))
	t.Cleanup(srv.Close)

	return &harness{t: t, url: srv.URL, credPath: filepath.Join(t.TempDir(), "credentials.json")}
}

// run executes one command in a fresh process-like session.
func (h *harness) run(stdin string, args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	s := client.NewSession(client.New(h.url), h.credPath)
	code = Run(context.Background(), s, args, Options{
		Stdout: &out,
		Stderr: &errOut,
		Stdin:  strings.NewReader(stdin),
	})
	return code, out.String(), errOut.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run("", args...)
	require.Equal(h.t, ExitOK, code, "stderr: %s", errOut)
	return out
}

func TestRunWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("register", "-email", "ada@example.com", "-name", "Ada", "-password", "secret1")
	assert.Contains(t, out, "logged in as Ada")

	assert.Contains(t, h.mustRun("whoami"), "ada@example.com")

	assert.Contains(t, h.mustRun("add", "-title", "Buy milk", "-description", "2 litres"), "created #1 Buy milk")
	h.mustRun("add", "-title", "Walk dog", "-status", "done")

	out = h.mustRun("ls")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Walk dog")
	assert.Contains(t, out, "Total 2")

	out = h.mustRun("ls", "-status", "done")
	assert.Contains(t, out, "Walk dog")
	assert.NotContains(t, out, "Buy milk")

	// Only the status flag is set; title and description are kept.
	h.mustRun("edit", "1", "-status", "done")
	out = h.mustRun("show", "1")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "2 litres")
	assert.Contains(t, out, "done")

	code, out, _ := h.run("n\n", "rm", "1")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "cancelled")
	h.mustRun("show", "1")

	code, out, _ = h.run("y\n", "rm", "1")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "deleted #1")

	code, _, errOut := h.run("", "show", "1")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Item not found.")

	h.mustRun("rm", "-y", "2")
	assert.Contains(t, h.mustRun("ls"), "No items.")

	h.mustRun("logout")
	code, _, errOut = h.run("", "whoami")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Not logged in.")
}

func TestRunLoginPrompts(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-email", "ada@example.com", "-name", "Ada", "-password", "secret1")
	h.mustRun("logout")

	code, out, _ := h.run("ada@example.com\nsecret1\n", "login")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "logged in as Ada")

	code, _, errOut := h.run("", "login", "-email", "ada@example.com", "-password", "wrong-pw")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Invalid credentials.")
}

func TestRunWritesNeedLogin(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("", "add", "-title", "Buy milk")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Not logged in.")

	// Reads work logged out.
	h.mustRun("ls")
}

func TestRunShowsServerValidation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-email", "ada@example.com", "-name", "Ada", "-password", "secret1")

	code, _, errOut := h.run("", "add", "-title", "a")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Title must be at least 2 characters.")
}

func TestRunUsage(t *testing.T) {
	h := newHarness(t)

	tests := [][]string{
		{},
		{"frobnicate"},
		{"show"},
		{"show", "abc"},
		{"rm", "0"},
	}
	for _, args := range tests {
		code, _, _ := h.run("", args...)
		assert.Equal(t, ExitUsage, code, "args %v", args)
	}
}

func TestRunHealth(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("health")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "memory")
}
