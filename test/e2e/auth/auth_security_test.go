package auth_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
)

// TestInvalidSessionToken verifies that protected endpoints reject
// malformed and forged tokens.
func TestInvalidSessionToken(t *testing.T) {
	client := newClient(t, setupAuthContainer(t))
	ctx := t.Context()

	_, err := client.Me(ctx, "invalid-token-12345")
	assertAPIError(t, err, authsdk.ErrUnauthenticated, "malformed token")

	session := performLogin(t, client, "alice")
	forged := session.SessionToken()[:len(session.SessionToken())-4] + "AAAA"

	_, err = client.Authorize(ctx, forged, "referencias.leer")
	assertAPIError(t, err, authsdk.ErrUnauthenticated, "forged signature")
}

// TestUnauthenticatedResponsesMatch verifies a missing token and a bad
// token produce byte-identical responses.
func TestUnauthenticatedResponsesMatch(t *testing.T) {
	baseURL := setupAuthContainer(t)

	fetch := func(token string) (int, string) {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/auth/me", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	missingStatus, missingBody := fetch("")
	badStatus, badBody := fetch("not.a.jwt")

	require.Equal(t, http.StatusUnauthorized, missingStatus)
	require.Equal(t, missingStatus, badStatus)
	require.Equal(t, missingBody, badBody)
	require.True(t, strings.Contains(missingBody, authsdk.ErrorCodeUnauthenticated))
}
