package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-item-tracker/config"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/container"
)

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{SecretKey: "router-test-secret", Issuer: "item-tracker", TTL: time.Hour}

	c, err := container.NewInMemory(cfg, logger, nil)
	require.NoError(t, err)

	rc := &Config{
		AuthHandler:    c.AuthHandler,
		ItemHandler:    c.ItemHandler,
		HealthHandler:  c.HealthHandler,
		Verifier:       c.Tokens,
		Logger:         logger,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	if mutate != nil {
		mutate(rc)
	}
	return SetupRouter(rc)
}

func do(h http.Handler, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "192.0.2.10:4567"
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealthRoute(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "memory", body["server"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found.", errorOf(t, rr).Error)
}

func TestTrailingSlashIsStripped(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/api/items/", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestWritesRequireBearerToken(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		header http.Header
		want   string
	}{
		{"CreateMissingHeader", http.MethodPost, "/api/items", nil, "Missing or invalid authorization header."},
		{"UpdateWrongScheme", http.MethodPut, "/api/items/1", http.Header{"Authorization": {"Basic abc"}}, "Missing or invalid authorization header."},
		{"DeleteBadToken", http.MethodDelete, "/api/items/1", http.Header{"Authorization": {"Bearer not-a-jwt"}}, "Invalid or expired token."},
		{"MeMissingHeader", http.MethodGet, "/api/auth/me", nil, "Missing or invalid authorization header."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, tt.method, tt.target, map[string]string{"title": "Buy milk"}, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, tt.want, errorOf(t, rr).Error)
		})
	}
}

func TestReadsIgnoreInvalidToken(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/api/items", nil, http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRateLimit(t *testing.T) {
	h := newTestRouter(t, func(c *Config) { c.AuthRateLimit = 2 })
	creds := map[string]string{"email": "nobody@example.com", "password": "secret1"}

	for range 2 {
		rr := do(h, http.MethodPost, "/api/auth/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := do(h, http.MethodPost, "/api/auth/login", creds, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, msgTooManyRequests, errorOf(t, rr).Error)

	// Item routes are not throttled.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/items", nil, nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodOptions, "/api/items", nil, http.Header{
		"Origin":                        {"http://localhost:5173"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionalMounts(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		h := newTestRouter(t, nil)
		assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics", nil, nil).Code)
		assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/swagger/doc.json", nil, nil).Code)
	})

	t.Run("Enabled", func(t *testing.T) {
		h := newTestRouter(t, func(c *Config) {
			c.SwaggerEnabled = true
			c.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("# metrics"))
			})
		})

		rr := do(h, http.MethodGet, "/metrics", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "# metrics", rr.Body.String())

		rr = do(h, http.MethodGet, "/swagger/doc.json", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "/items/{id}")
	})
}
