package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/retail-console/apiclient"
	"github.com/jrsteele09/retail-console/auth"
	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Email {
		case "a@b.com":
			http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "r1", Path: "/api/auth", HttpOnly: true})
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok1"})
		case "mfa@b.com":
			writeJSON(w, http.StatusAccepted, map[string]string{
				"next_step":                    auth.NextStepEmailVerification,
				"pending_authentication_token": "ptok1",
			})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
		}
	})
	mux.HandleFunc("POST /api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		var req auth.VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Code != "123456" || req.PendingAuthenticationToken != "ptok1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid verification code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok2"})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("refresh_token")
		if err != nil || cookie.Value != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok3"})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/tenants", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []tenants.Tenant{{ID: "t1", Name: "Store One"}, {ID: "t2", Name: "Store Two", Region: "north"}})
	})
	mux.HandleFunc("GET /api/inventory", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Tenant-Id") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": apperrors.DetailMissingTenantHeader})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"tenant": r.Header.Get("X-Tenant-Id")})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := apiclient.New("")
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL + "/")
	require.NoError(t, err)
	require.Equal(t, srv.URL, c.BaseURL())

	resp, err := c.Login(context.Background(), auth.LoginRequest{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "tok1", resp.Token)
	require.False(t, resp.RequiresVerification())
}

func TestLogin_StepUpKeepsStatus(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Login(context.Background(), auth.LoginRequest{Email: "mfa@b.com", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.True(t, resp.RequiresVerification())
	require.Equal(t, "ptok1", resp.PendingAuthenticationToken)
	require.Empty(t, resp.Token)

	resp, err = c.Verify(context.Background(), auth.VerifyRequest{Code: "123456", PendingAuthenticationToken: "ptok1"})
	require.NoError(t, err)
	require.Equal(t, "tok2", resp.Token)
}

func TestLogin_RejectedIsResponseError(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), auth.LoginRequest{Email: "nobody@b.com", Password: "x"})

	var respErr *apperrors.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusUnauthorized, respErr.StatusCode)
	require.Equal(t, "Invalid email or password", respErr.DisplayMessage())
}

func TestRefresh_UsesCookieFromLogin(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Refresh(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSessionExpired, "no cookie yet")

	_, err = c.Login(context.Background(), auth.LoginRequest{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)

	token, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok3", token)

	require.NoError(t, c.Logout(context.Background()))
}

func TestListTenants(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	list, err := c.ListTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "t2", list[1].ID)
	require.Equal(t, "north", list[1].Region)
}

func TestGet(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/api/inventory")
	require.ErrorIs(t, err, apperrors.ErrTenantUnassigned)

	_, err = c.Get(context.Background(), "/api/missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGet_TransportError(t *testing.T) {
	srv := newTestServer(t)
	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Get(context.Background(), "/api/inventory")
	require.Error(t, err)
	var respErr *apperrors.ResponseError
	require.False(t, errors.As(err, &respErr))
}
