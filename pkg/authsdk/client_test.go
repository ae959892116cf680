package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const testTransportSecret = "sdk-transport-secret"

// fakeServer mimics the login, refresh and me endpoints.
type fakeServer struct {
	t        *testing.T
	codec    *cryptox.TransportCodec
	refreshs atomic.Int32
	expires  int
}

func newFakeServer(t *testing.T, expiresIn int) *httptest.Server {
	t.Helper()

	codec, err := cryptox.NewTransportCodec(testTransportSecret, cryptox.TransportParamsV1)
	require.NoError(t, err)

	fs := &fakeServer{t: t, codec: codec, expires: expiresIn}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", fs.login)
	mux.HandleFunc("POST /v1/auth/refresh", fs.refresh)
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			ErrUnauthenticated.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, MeResponse{
			User:        jwtx.Subject{UserID: 1, Username: "alice"},
			Permissions: []string{"read_user"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (fs *fakeServer) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&req))

	username, err := fs.codec.Decrypt(req.Username)
	if err != nil {
		ErrInvalidCredentials.WriteError(w)
		return
	}
	password, err := fs.codec.Decrypt(req.Password)
	if err != nil {
		ErrInvalidCredentials.WriteError(w)
		return
	}

	switch {
	case username == "bob":
		AccountLocked(15).WriteError(w)
	case username != "alice" || password != "secret":
		ErrInvalidCredentials.WriteError(w)
	default:
		httpx.WriteJSON(w, http.StatusOK, LoginResponse{
			SessionToken: "session-0",
			RefreshToken: "refresh-token",
			TokenType:    "Bearer",
			ExpiresIn:    fs.expires,
			Permissions:  []string{"read_user", "edit_user"},
			User:         jwtx.Subject{UserID: 1, Username: "alice"},
		})
	}
}

func (fs *fakeServer) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&req))
	if req.RefreshToken != "refresh-token" {
		ErrUnauthenticated.WriteError(w)
		return
	}

	fs.refreshs.Add(1)
	httpx.WriteJSON(w, http.StatusOK, RefreshResponse{
		SessionToken: "session-refreshed",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		Permissions:  []string{"read_user"},
	})
}

func TestClientLogin(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, 3600)
	client, err := NewClient(srv.URL+"/", testTransportSecret)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		sess, err := client.Login(ctx, "alice", "secret", LoginOptions{})
		require.NoError(t, err)
		require.Equal(t, "session-0", sess.SessionToken())
		require.Equal(t, "alice", sess.User().Username)
		require.True(t, sess.HasPermission("edit_user"))
		require.False(t, sess.HasPermission("delete_user"))

		me, err := sess.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), me.User.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(ctx, "alice", "nope", LoginOptions{})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("locked", func(t *testing.T) {
		_, err := client.Login(ctx, "bob", "secret", LoginOptions{})
		require.ErrorIs(t, err, ErrAccountLocked)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, 15, apiErr.RemainingMinutes)
		require.Equal(t, http.StatusLocked, apiErr.StatusCode)
	})

	t.Run("mismatched secret", func(t *testing.T) {
		other, err := NewClient(srv.URL, "another-secret")
		require.NoError(t, err)

		_, err = other.Login(ctx, "alice", "secret", LoginOptions{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	// Expires inside the refresh skew, so the first call refreshes.
	srv := newFakeServer(t, 10)
	client, err := NewClient(srv.URL, testTransportSecret)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := client.Login(ctx, "alice", "secret", LoginOptions{})
	require.NoError(t, err)

	_, err = sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "session-refreshed", sess.SessionToken())
	require.False(t, sess.HasPermission("edit_user"))

	_, err = sess.Me(ctx)
	require.NoError(t, err)

	require.NoError(t, sess.Logout(ctx))
	require.Empty(t, sess.RefreshToken())

	// Forcing a refresh after logout fails locally.
	require.Error(t, sess.Refresh(ctx))
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestSessionTokenExpiry(t *testing.T) {
	t.Parallel()

	s := &Session{expiresAt: time.Now().Add(time.Minute), sessionToken: "tok"}
	tok, err := s.validToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok", tok)
}
