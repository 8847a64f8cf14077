package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamplan/server/internal/auth"
)

const testCookie = "planner_token"

func authedHandler(t *testing.T, wantUserID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantUserID, UserID(r))
		claims := SessionClaims(r)
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionAuth(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour, "")
	token, err := mgr.Generate("user-42", "traveller@example.com")
	require.NoError(t, err)

	wrap := SessionAuth(mgr, testCookie, "test")

	t.Run("cookie session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/plans", nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
		rec := httptest.NewRecorder()

		wrap(authedHandler(t, "user-42")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		wrap(authedHandler(t, "user-42")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/plans", nil)
		rec := httptest.NewRecorder()

		wrap(authedHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("tampered token", func(t *testing.T) {
		other := auth.NewJWTManager("another-secret", time.Hour, "")
		forged, err := other.Generate("user-42", "")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/plans", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()

		wrap(authedHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		headerToken, err := mgr.Generate("user-other", "")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/plans", nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
		req.Header.Set("Authorization", "Bearer "+headerToken)
		rec := httptest.NewRecorder()

		wrap(authedHandler(t, "user-42")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestUserIDWithoutSession(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, UserID(req))
	assert.Nil(t, SessionClaims(req))
}
