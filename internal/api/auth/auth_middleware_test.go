package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, identity)
	})
}

func TestRequireAuth(t *testing.T) {
	tokens := newTestTokenManager(t)
	valid, err := tokens.Issue(11, "ada@example.com")
	require.NoError(t, err)

	past := time.Now().Add(-30 * 24 * time.Hour)
	expired, err := tokens.WithClock(fixedClock(past)).Issue(11, "ada@example.com")
	require.NoError(t, err)

	h := RequireAuth(slog.New(slog.NewTextHandler(io.Discard, nil)), tokens)(identityEcho(t))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"Missing", "", http.StatusUnauthorized, "Missing or invalid authorization header."},
		{"WrongScheme", "Basic " + valid, http.StatusUnauthorized, "Missing or invalid authorization header."},
		{"LowercaseScheme", "bearer " + valid, http.StatusUnauthorized, "Missing or invalid authorization header."},
		{"EmptyToken", "Bearer ", http.StatusUnauthorized, "Missing or invalid authorization header."},
		{"Garbage", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token."},
		{"Expired", "Bearer " + expired, http.StatusUnauthorized, "Invalid or expired token."},
		{"Valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				var body api.ErrorBody
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body.Error)
				return
			}

			var identity types.Identity
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &identity))
			assert.Equal(t, types.Identity{UserID: 11, Email: "ada@example.com"}, identity)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTestTokenManager(t)
	valid, err := tokens.Issue(11, "ada@example.com")
	require.NoError(t, err)

	h := OptionalAuth(tokens)(identityEcho(t))

	t.Run("Anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("InvalidTokenIsIgnored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("ValidTokenAttachesIdentity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
