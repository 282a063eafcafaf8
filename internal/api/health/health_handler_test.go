package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		pinger stubPinger
		wantOK bool
	}{
		{"Up", stubPinger{}, true},
		{"DownStillAnswers200", stubPinger{err: errors.New("connection refused")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pinger, slog.New(slog.NewTextHandler(io.Discard, nil)))
			h.now = func() time.Time { return fixed }

			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			var body Status
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantOK, body.OK)
			assert.Equal(t, "postgres", body.Server)
			assert.True(t, fixed.Equal(body.Time))
		})
	}
}

func TestHealthWithServer(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, slog.New(slog.NewTextHandler(io.Discard, nil))).WithServer("memory")

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var body Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "memory", body.Server)
}
