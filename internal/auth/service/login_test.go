package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
	"github.com/pquerna/otp/totp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginAlice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "consulta", map[string]bool{
		"referencias.leer":  true,
		"referencias.crear": false,
	})
	alice := f.seedUser(t, domain.User{Username: "alice", Email: "alice@example.com", RoleID: role})

	sess, err := f.login.Login(ctx, f.request(t, "alice", testPassword))
	require.NoError(t, err)
	require.Equal(t, []string{"referencias.leer"}, sess.Permissions)
	require.Equal(t, alice.ID, sess.Subject.UserID)
	require.Equal(t, time.Hour, sess.ExpiresIn)
	require.True(t, f.clock.Now().Add(time.Hour).Equal(sess.ExpiresAt))
	require.NotEmpty(t, sess.RefreshToken)

	claims, err := f.issuer.VerifySession(sess.SessionToken)
	require.NoError(t, err)
	require.True(t, claims.HasPermission("referencias.leer"))
	require.False(t, claims.HasPermission("referencias.crear"))
	require.Equal(t, "alice@example.com", claims.Identity().Email)

	t.Run("email works as identifier", func(t *testing.T) {
		_, err := f.login.Login(ctx, f.request(t, "ALICE@example.com", testPassword))
		require.NoError(t, err)
	})

	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metricsx.OutcomeSuccess)))
}

func TestLoginBobLocksOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "cajero", map[string]bool{"ventas.leer": true})
	bob := f.seedUser(t, domain.User{Username: "bob", Email: "bob@example.com", RoleID: role})

	for i := range 2 {
		_, err := f.login.Login(ctx, f.request(t, "bob", "wrong"))
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
		f.clock.Advance(time.Minute)
	}

	// The third failure trips the lock and reports it immediately.
	_, err := f.login.Login(ctx, f.request(t, "bob", "wrong"))
	var locked *AccountLockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, 15, locked.RemainingMinutes)
	require.Equal(t, 3, locked.FailedCount)

	f.clock.Advance(5 * time.Minute)
	_, err = f.login.Login(ctx, f.request(t, "bob", testPassword))
	require.ErrorAs(t, err, &locked)
	require.Equal(t, 10, locked.RemainingMinutes)

	// No exitoso row: the advisory counter was not reset and the ledger
	// still holds only the three failures.
	stored, err := f.store.Users().FindUserByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.FailedAttempts)
	require.NotNil(t, stored.LockedUntil)

	status, err := f.lockout.CheckLockout(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 3, status.FailedCount)

	f.clock.Advance(10 * time.Minute)
	sess, err := f.login.Login(ctx, f.request(t, "bob", testPassword))
	require.NoError(t, err)
	require.Equal(t, []string{"ventas.leer"}, sess.Permissions)

	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metricsx.OutcomeInvalid)))
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metricsx.OutcomeLocked)))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Lockouts))
}

func TestLoginRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "cajero", nil)
	f.seedUser(t, domain.User{Username: "erin", Email: "erin@example.com", RoleID: role})
	inactive := f.seedUser(t, domain.User{Username: "frank", Email: "frank@example.com", RoleID: role})
	require.NoError(t, f.store.Users().SetActive(ctx, inactive.ID, false))

	t.Run("tampered ciphertext", func(t *testing.T) {
		req := f.request(t, "erin", testPassword)
		last := byte('a')
		if req.Password[len(req.Password)-1] == last {
			last = 'b'
		}
		req.Password = req.Password[:len(req.Password)-1] + string(last)
		_, err := f.login.Login(ctx, req)
		require.ErrorIs(t, err, cryptox.ErrTransportDecryption)
	})

	t.Run("wrong delimiter count", func(t *testing.T) {
		req := f.request(t, "erin", testPassword)
		req.Username = "aa:bb:cc"
		_, err := f.login.Login(ctx, req)
		require.ErrorIs(t, err, cryptox.ErrTransportDecryption)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.login.Login(ctx, f.request(t, "mallory", testPassword))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := f.login.Login(ctx, f.request(t, "frank", testPassword))
		require.ErrorIs(t, err, ErrInvalidCredentials)

		status, err := f.lockout.CheckLockout(ctx, inactive.ID)
		require.NoError(t, err)
		require.Zero(t, status.FailedCount)
	})

	t.Run("empty fields", func(t *testing.T) {
		_, err := f.login.Login(ctx, f.request(t, "erin", ""))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metricsx.OutcomeTransportError)))
}

func TestLoginTwoFactor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "admin", map[string]bool{"usuarios.crear": true})

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "gatehouse", AccountName: "carol@example.com"})
	require.NoError(t, err)
	carol := f.seedUser(t, domain.User{
		Username:         "carol",
		Email:            "carol@example.com",
		RoleID:           role,
		TwoFactorSecret:  key.Secret(),
		TwoFactorEnabled: true,
	})

	_, err = f.login.Login(ctx, f.request(t, "carol", testPassword))
	require.ErrorIs(t, err, ErrTwoFactorRequired)

	req := f.request(t, "carol", testPassword)
	req.OTP = "000000"
	code, err := totp.GenerateCode(key.Secret(), f.clock.Now())
	require.NoError(t, err)
	if code == req.OTP {
		req.OTP = "111111"
	}
	_, err = f.login.Login(ctx, req)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	status, err := f.lockout.CheckLockout(ctx, carol.ID)
	require.NoError(t, err)
	require.Equal(t, 1, status.FailedCount)

	req.OTP = code
	sess, err := f.login.Login(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []string{"usuarios.crear"}, sess.Permissions)
}

func TestLoginRememberMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "cajero", nil)
	f.seedUser(t, domain.User{Username: "gus", Email: "gus@example.com", RoleID: role})

	sess, err := f.login.Login(ctx, f.request(t, "gus", testPassword))
	require.NoError(t, err)
	claims, err := f.issuer.VerifyRefresh(sess.RefreshToken)
	require.NoError(t, err)
	require.True(t, f.clock.Now().Add(24*time.Hour).Equal(claims.ExpiresAt.Time))

	req := f.request(t, "gus", testPassword)
	req.RememberMe = true
	sess, err = f.login.Login(ctx, req)
	require.NoError(t, err)
	claims, err = f.issuer.VerifyRefresh(sess.RefreshToken)
	require.NoError(t, err)
	require.True(t, f.clock.Now().Add(30*24*time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	role := f.seedRole(t, "consulta", nil)

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := f.store.Users().CreateUser(ctx, domain.User{
		Username:     "hank",
		Email:        "hank@example.com",
		PasswordHash: string(legacy),
		RoleID:       role,
		Active:       true,
		CreatedAt:    f.clock.Now(),
	})
	require.NoError(t, err)

	_, err = f.login.Login(ctx, f.request(t, "hank", testPassword))
	require.NoError(t, err)

	u, err := f.store.Users().FindUserByID(ctx, id)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	require.False(t, cryptox.NeedsRehash(u.PasswordHash))
	require.Nil(t, u.PasswordChangedAt)

	_, err = f.login.Login(ctx, f.request(t, "hank", testPassword))
	require.NoError(t, err)

	t.Run("wrong password keeps the legacy hash", func(t *testing.T) {
		f := newFixture(t)
		role := f.seedRole(t, "consulta", nil)
		id, err := f.store.Users().CreateUser(ctx, domain.User{
			Username: "ike", Email: "ike@example.com", PasswordHash: string(legacy),
			RoleID: role, Active: true, CreatedAt: f.clock.Now(),
		})
		require.NoError(t, err)

		_, err = f.login.Login(ctx, f.request(t, "ike", "not it"))
		require.ErrorIs(t, err, ErrInvalidCredentials)

		u, err := f.store.Users().FindUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, string(legacy), u.PasswordHash)
	})
}
