package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "planner_token" {
			return c
		}
	}
	return nil
}

func TestRegisterHandler(t *testing.T) {
	t.Run("creates account and signs in", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, f.auth.Register, "POST", "/api/v1/auth/register", "",
			map[string]string{"name": "Ada", "email": "ada@example.com", "password": "correct-horse"}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp sessionResponse
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "ada@example.com", resp.User.Email)
		assert.Equal(t, "Ada", resp.User.Name)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "Ada", "ada@example.com")

		rec := f.do(t, f.auth.Register, "POST", "/api/v1/auth/register", "",
			map[string]string{"name": "Imposter", "email": "ada@example.com", "password": "correct-horse"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("validation failures name fields", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, f.auth.Register, "POST", "/api/v1/auth/register", "",
			map[string]string{"name": "Ada", "email": "not-an-email", "password": "short"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Errors map[string]string `json:"errors"`
		}
		decodeBody(t, rec, &body)
		assert.Contains(t, body.Errors, "Email")
		assert.Contains(t, body.Errors, "Password")
	})
}

func TestLoginHandler(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada", "ada@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		rec := f.do(t, f.auth.Login, "POST", "/api/v1/auth/login", "",
			map[string]string{"email": "ada@example.com", "password": "correct-horse"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp sessionResponse
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, sessionCookie(t, rec))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, f.auth.Login, "POST", "/api/v1/auth/login", "",
			map[string]string{"email": "ada@example.com", "password": "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		rec := f.do(t, f.auth.Login, "POST", "/api/v1/auth/login", "",
			map[string]string{"email": "ghost@example.com", "password": "correct-horse"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := f.do(t, f.auth.Login, "POST", "/api/v1/auth/login", "",
			map[string]string{"email": "ada@example.com"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.auth.Logout, "POST", "/api/v1/auth/logout", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestMeHandler(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "Ada", "ada@example.com")

	t.Run("known user", func(t *testing.T) {
		rec := f.do(t, f.auth.Me, "GET", "/api/v1/auth/me", user.ID, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var info userInfo
		decodeBody(t, rec, &info)
		assert.Equal(t, user.ID, info.ID)
		assert.Equal(t, "ada@example.com", info.Email)
	})

	t.Run("token for deleted account", func(t *testing.T) {
		rec := f.do(t, f.auth.Me, "GET", "/api/v1/auth/me", "gone-user", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
