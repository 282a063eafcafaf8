package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

func TestDoMapsErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"ServerMessage", http.StatusBadRequest, `{"error":"Title must be at least 2 characters."}`, "Title must be at least 2 characters."},
		{"EmptyBody", http.StatusBadGateway, ``, "Request failed: 502"},
		{"NotJSON", http.StatusInternalServerError, `<html>oops</html>`, "Request failed: 500"},
		{"BlankError", http.StatusNotFound, `{"error":"  "}`, "Request failed: 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).GetItem(context.Background(), 1)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestBearerHeaderOnlyWithToken(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	_, err := c.ListItems(context.Background(), "", "")
	require.NoError(t, err)

	c.SetToken("abc")
	_, err = c.ListItems(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer abc"}, got)
}

func TestListItemsQuery(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":1,"title":"Buy milk","status":"done"}]`))
	}))
	defer srv.Close()

	items, err := New(srv.URL).ListItems(context.Background(), "done", "milk & honey")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.StatusDone, items[0].Status)
	assert.Equal(t, "q=milk+%26+honey&status=done", rawQuery)
}

func TestDeleteItemNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/items/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).DeleteItem(context.Background(), 9))
}

func TestUpdateItemSendsFullBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":3,"title":"New","status":"active"}`))
	}))
	defer srv.Close()

	it, err := New(srv.URL).UpdateItem(context.Background(), 3, types.ItemInput{Title: "New", Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), it.ID)
	assert.Equal(t, map[string]any{"title": "New", "description": "", "status": "active"}, body)
}
