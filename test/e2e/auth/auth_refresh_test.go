package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
)

// TestLoginRefreshLogout tests the complete session flow:
// 1. Login with a seeded user
// 2. Refresh the session token
// 3. Logout, which revokes the refresh token
// 4. Verify the revoked refresh token is refused
func TestLoginRefreshLogout(t *testing.T) {
	client := newClient(t, setupAuthContainer(t))
	ctx := t.Context()

	session := performLogin(t, client, "bob")
	refreshToken := session.RefreshToken()

	resp, err := client.Refresh(ctx, refreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Positive(t, resp.ExpiresIn)
	require.ElementsMatch(t, []string{"referencias.leer", "referencias.crear"}, resp.Permissions)

	// The refreshed token authorizes like the original
	authz, err := client.Authorize(ctx, resp.SessionToken, "referencias.crear")
	require.NoError(t, err)
	require.True(t, authz.Authorized)

	// Forcing a refresh keeps the same refresh token
	require.NoError(t, session.Refresh(ctx))
	require.Equal(t, refreshToken, session.RefreshToken())

	require.NoError(t, session.Logout(ctx))
	require.Empty(t, session.RefreshToken())

	_, err = client.Refresh(ctx, refreshToken)
	assertAPIError(t, err, authsdk.ErrUnauthenticated, "revoked refresh token")

	// Logout is idempotent
	require.NoError(t, client.Logout(ctx, refreshToken))
}

// TestRememberMeLogin verifies remember-me sessions refresh like normal ones.
func TestRememberMeLogin(t *testing.T) {
	client := newClient(t, setupAuthContainer(t))
	ctx := t.Context()

	session, err := client.Login(ctx, "alice", seedPassword, authsdk.LoginOptions{RememberMe: true})
	require.NoError(t, err)

	resp, err := client.Refresh(ctx, session.RefreshToken())
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)
}

// TestRefreshRejectsSessionToken verifies a session token cannot be used
// as a refresh token.
func TestRefreshRejectsSessionToken(t *testing.T) {
	client := newClient(t, setupAuthContainer(t))

	session := performLogin(t, client, "alice")

	_, err := client.Refresh(t.Context(), session.SessionToken())
	assertAPIError(t, err, authsdk.ErrUnauthenticated, "session token used for refresh")
}
