package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
)

func newAuthHandler(env *testEnv) *AuthHandler {
	auth := middleware.NewAuth("test-secret", time.Hour, middleware.NewMemoryRevoker(), env.store.Users)
	return NewAuthHandler(env.store, auth)
}

func TestLogin(t *testing.T) {
	env := newEnv(t)
	h := newAuthHandler(env)
	admin := testdb.User(t, env.db, "admin", models.RoleAdmin)
	inactive := testdb.User(t, env.db, "gone", models.RoleFiscal)
	require.NoError(t, env.store.Users.SetActive(context.Background(), inactive.ID, false))

	t.Run("valid credentials", func(t *testing.T) {
		rec := call(h.Login, http.MethodPost, "/login",
			jsonBody(t, map[string]string{"username": "admin", "password": "secret123"}), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp loginResp
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, admin.ID.String(), resp.User.ID)
		assert.Equal(t, models.RoleAdmin, resp.User.Role)
		assert.NotEmpty(t, resp.Menu)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
	})

	cases := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantBody string
	}{
		{"wrong password", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized, "invalid credentials"},
		{"unknown user", map[string]string{"username": "ghost", "password": "secret123"}, http.StatusUnauthorized, "invalid credentials"},
		{"inactive account", map[string]string{"username": "gone", "password": "secret123"}, http.StatusUnauthorized, "account is inactive"},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest, "required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(h.Login, http.MethodPost, "/login", jsonBody(t, tc.body), nil, nil)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestGetMenuGreetsByFirstName(t *testing.T) {
	env := newEnv(t)
	h := newAuthHandler(env)
	owner := testdb.User(t, env.db, "owner", models.RoleOwner)

	rec := call(h.GetMenu, http.MethodGet, "/api/v1/menu", nil, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Greeting string      `json:"greeting"`
		Role     models.Role `json:"role"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Hello, Owner", resp.Greeting)
	assert.Equal(t, models.RoleOwner, resp.Role)
}

func TestChangeOwnPassword(t *testing.T) {
	env := newEnv(t)
	h := newAuthHandler(env)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)

	rec := call(h.ChangeOwnPassword, http.MethodPost, "/api/v1/me/password",
		jsonBody(t, map[string]string{"current_password": "wrong", "new_password": "another123"}), fiscal, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(h.ChangeOwnPassword, http.MethodPost, "/api/v1/me/password",
		jsonBody(t, map[string]string{"current_password": "secret123", "new_password": "abc"}), fiscal, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.ChangeOwnPassword, http.MethodPost, "/api/v1/me/password",
		jsonBody(t, map[string]string{"current_password": "secret123", "new_password": "another123"}), fiscal, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reloaded, err := env.store.Users.Get(context.Background(), fiscal.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CheckPassword("another123"))
	assert.False(t, reloaded.CheckPassword("secret123"))
}
