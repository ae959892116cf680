package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testSecret    = []byte("0123456789abcdef0123456789abcdef")
	otherSecret   = []byte("fedcba9876543210fedcba9876543210")
	refreshSecret = []byte("refresh-refresh-refresh-refresh!")

	alice = jwtx.Subject{UserID: 7, Username: "alice", Email: "alice@example.com", RoleID: 3}
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newIssuer(t *testing.T, c *clock) *jwtx.HS256Issuer {
	t.Helper()
	iss, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{
		Issuer:        "gatehouse-test",
		SessionSecret: testSecret,
		RefreshSecret: refreshSecret,
		MaxSessionTTL: 2 * time.Hour,
		Now:           c.Now,
	})
	require.NoError(t, err)
	return iss
}

func TestSessionRoundTrip(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	iss := newIssuer(t, c)

	token, exp, err := iss.IssueSession(alice, []string{"referencias.leer", "ventas.leer"}, time.Hour)
	require.NoError(t, err)
	require.Equal(t, c.now.Add(time.Hour), exp)

	claims, err := iss.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, alice, claims.Identity())
	require.Equal(t, []string{"referencias.leer", "ventas.leer"}, claims.Permissions)
	require.True(t, claims.HasPermission("ventas.leer"))
	require.False(t, claims.HasPermission("ventas.crear"))
	require.Equal(t, "gatehouse-test", claims.Issuer)
}

func TestSessionExpiryBoundary(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	iss := newIssuer(t, c)

	token, _, err := iss.IssueSession(alice, nil, time.Minute)
	require.NoError(t, err)

	t.Run("just before expiry", func(t *testing.T) {
		c.now = time.Unix(1_700_000_000, 0).UTC().Add(time.Minute - time.Second)
		claims, err := iss.VerifySession(token)
		require.NoError(t, err)
		require.Empty(t, claims.Permissions)
	})

	t.Run("at expiry", func(t *testing.T) {
		c.now = time.Unix(1_700_000_000, 0).UTC().Add(time.Minute)
		_, err := iss.VerifySession(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("after expiry", func(t *testing.T) {
		c.now = time.Unix(1_700_000_000, 0).UTC().Add(time.Hour)
		_, err := iss.VerifySession(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestSessionTTLClamped(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	iss := newIssuer(t, c)

	_, exp, err := iss.IssueSession(alice, nil, 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, c.now.Add(2*time.Hour), exp)
	require.Equal(t, 2*time.Hour, iss.MaxSessionTTL())

	_, _, err = iss.IssueSession(alice, nil, 0)
	require.Error(t, err)
}

func TestVerifySessionFailures(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	iss := newIssuer(t, c)

	good, _, err := iss.IssueSession(alice, []string{"ventas.leer"}, time.Hour)
	require.NoError(t, err)

	forge := func(secret []byte, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7", "typ": "session", "iss": "gatehouse-test", "exp": c.now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	otherIssuer := forge(testSecret, jwt.MapClaims{
		"sub": "7", "typ": "session", "iss": "someone-else", "exp": c.now.Add(time.Hour).Unix(),
	})
	noExpiry := forge(testSecret, jwt.MapClaims{"sub": "7", "typ": "session", "iss": "gatehouse-test"})
	badSubject := forge(testSecret, jwt.MapClaims{
		"sub": "alice", "typ": "session", "iss": "gatehouse-test", "exp": c.now.Add(time.Hour).Unix(),
	})

	refresh, _, _, err := iss.IssueRefresh(7, time.Hour)
	require.NoError(t, err)

	sameSecretIssuer, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{
		Issuer: "gatehouse-test", SessionSecret: testSecret, Now: c.Now,
	})
	require.NoError(t, err)
	sharedRefresh, _, _, err := sameSecretIssuer.IssueRefresh(7, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", jwtx.ErrMalformed},
		{"garbage", "not.a.jwt", jwtx.ErrMalformed},
		{"two segments", parts[0] + "." + parts[1], jwtx.ErrMalformed},
		{"tampered signature", tampered, jwtx.ErrInvalidSig},
		{"wrong secret", forge(otherSecret, jwt.MapClaims{"sub": "7", "typ": "session"}), jwtx.ErrInvalidSig},
		{"alg none", noneToken, jwtx.ErrInvalidSig},
		{"foreign issuer", otherIssuer, jwtx.ErrIssuer},
		{"missing exp", noExpiry, jwtx.ErrInvalidClaim},
		{"non numeric subject", badSubject, jwtx.ErrInvalidClaim},
		{"refresh signed with refresh secret", refresh, jwtx.ErrInvalidSig},
		{"refresh signed with shared secret", sharedRefresh, jwtx.ErrWrongTokenType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.VerifySession(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	iss := newIssuer(t, c)

	token, jti, exp, err := iss.IssueRefresh(42, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	require.Equal(t, c.now.Add(24*time.Hour), exp)

	claims, err := iss.VerifyRefresh(token)
	require.NoError(t, err)
	require.Equal(t, jti, claims.ID)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.EqualValues(t, 42, id)

	t.Run("not clamped by session max", func(t *testing.T) {
		c.Advance(12 * time.Hour)
		_, err := iss.VerifyRefresh(token)
		require.NoError(t, err)
	})

	t.Run("expires", func(t *testing.T) {
		c.Advance(12 * time.Hour)
		_, err := iss.VerifyRefresh(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("session token is not a refresh token", func(t *testing.T) {
		shared, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{SessionSecret: testSecret, Now: c.Now})
		require.NoError(t, err)
		session, _, err := shared.IssueSession(alice, nil, time.Hour)
		require.NoError(t, err)

		_, err = shared.VerifyRefresh(session)
		require.ErrorIs(t, err, jwtx.ErrWrongTokenType)
	})
}

func TestNewHS256IssuerValidation(t *testing.T) {
	_, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{SessionSecret: []byte("short")})
	require.Error(t, err)

	_, err = jwtx.NewHS256Issuer(jwtx.IssuerConfig{SessionSecret: testSecret, RefreshSecret: []byte("short")})
	require.Error(t, err)

	iss, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{SessionSecret: testSecret})
	require.NoError(t, err)
	require.Equal(t, jwtx.DefaultMaxSessionTTL, iss.MaxSessionTTL())
}
