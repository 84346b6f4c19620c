package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

func newTokenManager() *token.Manager {
	return token.NewManager("test-secret", 15*time.Minute, 168*time.Hour)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokenManager()

	t.Run("binds identity from a valid bearer token", func(t *testing.T) {
		accessToken, err := tokens.GenerateAccessToken("user-1", "ada@example.com", "patient")
		assert.NoError(t, err)

		var gotUserID string
		var gotRole entities.Role
		handler := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = middleware.UserIDFromContext(r.Context())
			gotRole = middleware.RoleFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", gotUserID)
		assert.Equal(t, entities.RolePatient, gotRole)
	})

	t.Run("accepts the token via query parameter", func(t *testing.T) {
		accessToken, err := tokens.GenerateAccessToken("user-2", "tunde@example.com", "doctor")
		assert.NoError(t, err)

		var gotUserID string
		handler := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = middleware.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/api/stream/consultations/cons-1/messages?access_token="+accessToken, nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-2", gotUserID)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		called := false
		handler := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		handler := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run with an invalid token")
		}))

		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		other := token.NewManager("other-secret", 15*time.Minute, 168*time.Hour)
		accessToken, err := other.GenerateAccessToken("user-3", "x@example.com", "patient")
		assert.NoError(t, err)

		handler := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run with a foreign token")
		}))

		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
