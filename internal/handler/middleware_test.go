package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
)

type fakeAuthenticator map[string]int64

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, service.ErrAuthentication
}

func TestRequireAuth(t *testing.T) {
	authn := fakeAuthenticator{"good": 42}
	protected := RequireAuth(authn, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(42), id)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			protected.ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", repo.ErrorNotFound, http.StatusNotFound},
		{"already exists", repo.ErrorAlreadyExists, http.StatusConflict},
		{"authentication", service.ErrAuthentication, http.StatusUnauthorized},
		{"validation", service.ErrValidation, http.StatusBadRequest},
		{"integrity", repo.ErrorIntegrity, http.StatusUnprocessableEntity},
		{"storage", repo.ErrorStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			handleErrors(w, r, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "empty", query: ""},
		{name: "all", query: "?status=completed&priority=urgent&category_id=3"},
		{name: "bad status", query: "?status=done", wantErr: true},
		{name: "bad priority", query: "?priority=critical", wantErr: true},
		{name: "bad category", query: "?category_id=abc", wantErr: true},
		{name: "zero category", query: "?category_id=0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/tasks"+tt.query, nil)
			f, err := parseFilter(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.query == "" {
				assert.Nil(t, f.Status)
				assert.Nil(t, f.Priority)
				assert.Nil(t, f.CategoryID)
				return
			}
			require.NotNil(t, f.Status)
			require.NotNil(t, f.Priority)
			require.NotNil(t, f.CategoryID)
			assert.Equal(t, "completed", string(*f.Status))
			assert.Equal(t, "urgent", string(*f.Priority))
			assert.Equal(t, int64(3), *f.CategoryID)
		})
	}
}
