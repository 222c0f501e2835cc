package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/quotes-api/internal/auth"
	"github.com/sakif/quotes-api/internal/handler"
)

// The portal routes only exist behind Basic auth, so the tests run each
// handler through the real middleware with real credentials.
func protect(env *testEnv, h http.HandlerFunc) http.Handler {
	return auth.RequireBasicAuth(env.accounts)(h)
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func portalPost(t *testing.T, h http.Handler, target, authHeader, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func registerPortalUser(t *testing.T, env *testEnv, username, email, password string) {
	t.Helper()
	if err := env.accounts.RegisterWithPassword(context.Background(), username, email, password); err != nil {
		t.Fatalf("RegisterWithPassword() error = %v", err)
	}
}

func TestPortal_SignIn(t *testing.T) {
	env := newTestEnv(t)
	registerPortalUser(t, env, "moira_b", "moira@example.com", "flashlight22")
	h := handler.NewPortalHandler(env.accounts, env.logger)
	route := protect(env, h.HandleSignIn)

	t.Run("correct credentials", func(t *testing.T) {
		rr := portalPost(t, route, "/portal/sign-in", basicHeader("moira_b", "flashlight22"), "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "User is authentic.")
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := portalPost(t, route, "/portal/sign-in", basicHeader("moira_b", "wrongpass123"), "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rr := portalPost(t, route, "/portal/sign-in", basicHeader("nobody", "flashlight22"), "")

		// 401, not 404: identities are never confirmed absent.
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rr := portalPost(t, route, "/portal/sign-in", "", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPortal_GetCurrentEmail(t *testing.T) {
	env := newTestEnv(t)
	registerPortalUser(t, env, "moira_b", "moira@example.com", "flashlight22")
	h := handler.NewPortalHandler(env.accounts, env.logger)
	route := protect(env, h.HandleGetCurrentEmail)

	rr := portalPost(t, route, "/portal/get-current-email", basicHeader("moira_b", "flashlight22"), "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "moira@example.com")
}

func TestPortal_ChangeEmail(t *testing.T) {
	env := newTestEnv(t)
	registerPortalUser(t, env, "moira_b", "moira@example.com", "flashlight22")
	h := handler.NewPortalHandler(env.accounts, env.logger)
	changeRoute := protect(env, h.HandleChangeEmail)
	getRoute := protect(env, h.HandleGetCurrentEmail)
	authHeader := basicHeader("moira_b", "flashlight22")

	t.Run("valid email", func(t *testing.T) {
		rr := portalPost(t, changeRoute, "/portal/change-email", authHeader,
			`{"newEmail":"new@example.com"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Email updated successfully.")

		rr = portalPost(t, getRoute, "/portal/get-current-email", authHeader, "")
		assert.Contains(t, rr.Body.String(), "new@example.com")
	})

	t.Run("invalid email leaves store untouched", func(t *testing.T) {
		rr := portalPost(t, changeRoute, "/portal/change-email", authHeader,
			`{"newEmail":"no-at-sign"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = portalPost(t, getRoute, "/portal/get-current-email", authHeader, "")
		assert.Contains(t, rr.Body.String(), "new@example.com")
	})
}

func TestPortal_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	registerPortalUser(t, env, "moira_b", "moira@example.com", "oldpassword1")
	h := handler.NewPortalHandler(env.accounts, env.logger)
	changeRoute := protect(env, h.HandleChangePassword)
	signInRoute := protect(env, h.HandleSignIn)

	rr := portalPost(t, changeRoute, "/portal/change-password",
		basicHeader("moira_b", "oldpassword1"), `{"newPassword":"newpassword2"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password updated successfully.")

	// The old password is dead, the new one signs in.
	rr = portalPost(t, signInRoute, "/portal/sign-in", basicHeader("moira_b", "oldpassword1"), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = portalPost(t, signInRoute, "/portal/sign-in", basicHeader("moira_b", "newpassword2"), "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPortal_DeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	registerPortalUser(t, env, "moira_b", "moira@example.com", "flashlight22")
	h := handler.NewPortalHandler(env.accounts, env.logger)
	deleteRoute := protect(env, h.HandleDeleteAccount)
	signInRoute := protect(env, h.HandleSignIn)
	authHeader := basicHeader("moira_b", "flashlight22")

	rr := portalPost(t, deleteRoute, "/portal/delete-account", authHeader, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Account deleted successfully.")

	rr = portalPost(t, signInRoute, "/portal/sign-in", authHeader, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
