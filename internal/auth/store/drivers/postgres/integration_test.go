package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway PostgreSQL container and returns a migrated
// store bound to it.
func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gatehouse",
			"POSTGRES_PASSWORD": "gatehouse",
			"POSTGRES_DB":       "gatehouse",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://gatehouse:gatehouse@%s:%s/gatehouse?sslmode=disable", host, port.Port())
	s, err := postgres.NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyMigrations())

	roleID, err := s.Permissions().CreateRole(ctx, "vendedor")
	require.NoError(t, err)
	readID, err := s.Permissions().CreatePermission(ctx, "ventas.leer", true)
	require.NoError(t, err)
	voidID, err := s.Permissions().CreatePermission(ctx, "ventas.anular", false)
	require.NoError(t, err)
	require.NoError(t, s.Permissions().GrantPermission(ctx, roleID, readID))
	require.NoError(t, s.Permissions().GrantPermission(ctx, roleID, readID))
	require.NoError(t, s.Permissions().GrantPermission(ctx, roleID, voidID))

	perms, err := s.Permissions().ResolveRolePermissions(ctx, roleID)
	require.NoError(t, err)
	require.Equal(t, []string{"ventas.leer"}, perms)

	userID, err := s.Users().CreateUser(ctx, domain.User{
		Username: "alice", Email: "Alice@Example.com", PasswordHash: "hash", RoleID: roleID, Active: true,
	})
	require.NoError(t, err)

	_, err = s.Users().CreateUser(ctx, domain.User{
		Username: "alice2", Email: "alice@example.com", PasswordHash: "hash", RoleID: roleID,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	u, err := s.Users().FindActiveUserByIdentifier(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, userID, u.ID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 3 {
		at := now.Add(time.Duration(i-3) * time.Minute)
		require.NoError(t, s.Attempts().AppendAccessAttempt(ctx, domain.AccessAttempt{
			ID: idx.NewAt(at), UserID: userID, Outcome: domain.OutcomeFailure,
			Origin: "203.0.113.7", Context: map[string]any{"reason": "password"}, AttemptedAt: at,
		}))
	}

	stats, err := s.Attempts().CountFailedAttemptsSince(ctx, userID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, stats.Count)
	require.True(t, now.Add(-time.Minute).Equal(*stats.LastAt))

	exp := now.Add(time.Hour)
	require.NoError(t, s.Revocations().RevokeToken(ctx, "jti-1", userID, exp))
	require.NoError(t, s.Revocations().RevokeToken(ctx, "jti-1", userID, exp))
	revoked, err := s.Revocations().IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	n, err := s.Revocations().DeleteExpiredRevocations(ctx, exp)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
