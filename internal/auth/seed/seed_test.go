package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestApplyIsIdempotent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	f, err := Load("testdata/seed.yaml")
	require.NoError(t, err)

	res, err := Apply(ctx, st, f)
	require.NoError(t, err)
	require.Equal(t, Result{Permissions: 3, Roles: 2, Grants: 4, Users: 4}, res)

	res, err = Apply(ctx, st, f)
	require.NoError(t, err)
	require.Equal(t, Result{Grants: 4}, res)

	analyst, err := st.Permissions().FindRoleByName(ctx, "analyst")
	require.NoError(t, err)
	perms, err := st.Permissions().ResolveRolePermissions(ctx, analyst.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"referencias.leer"}, perms)

	alice, err := st.Users().FindActiveUserByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, analyst.ID, alice.RoleID)
	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", alice.PasswordHash))

	dave, err := st.Users().FindActiveUserByIdentifier(ctx, "dave@example.com")
	require.NoError(t, err)
	require.True(t, dave.TwoFactorEnabled)
	require.Equal(t, "JBSWY3DPEHPK3PXP", dave.TwoFactorSecret)

	_, err = st.Users().FindActiveUserByIdentifier(ctx, "carol")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyReactivatesPermission(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	inactive := false
	_, err := Apply(ctx, st, File{
		Permissions: []Permission{{Name: "ventas.leer", Active: &inactive}},
		Roles:       []Role{{Name: "seller", Permissions: []string{"ventas.leer"}}},
	})
	require.NoError(t, err)

	seller, err := st.Permissions().FindRoleByName(ctx, "seller")
	require.NoError(t, err)
	perms, err := st.Permissions().ResolveRolePermissions(ctx, seller.ID)
	require.NoError(t, err)
	require.Empty(t, perms)

	_, err = Apply(ctx, st, File{Permissions: []Permission{{Name: "ventas.leer"}}})
	require.NoError(t, err)

	perms, err = st.Permissions().ResolveRolePermissions(ctx, seller.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"ventas.leer"}, perms)
}

func TestApplyUnknownReference(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := Apply(ctx, st, File{Roles: []Role{{Name: "ghost", Permissions: []string{"nope"}}}})
	require.ErrorIs(t, err, store.ErrNotFound)

	// The failed transaction left nothing behind.
	_, err = st.Permissions().FindRoleByName(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = Apply(ctx, st, File{Users: []User{{Username: "eve", Password: "pw", Role: "missing"}}})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "permissions: [",
			wantErr: "parse seed file",
		},
		{
			name:    "missing permission name",
			yaml:    "permissions:\n  - active: true\n",
			wantErr: "permissions[0]: name is required",
		},
		{
			name:    "both password fields",
			yaml:    "users:\n  - username: x\n    role: r\n    password: a\n    password_hash: b\n",
			wantErr: "exactly one of password and password_hash",
		},
		{
			name:    "no password",
			yaml:    "users:\n  - username: x\n    role: r\n",
			wantErr: "exactly one of password and password_hash",
		},
		{
			name:    "username shaped like an email",
			yaml:    "users:\n  - username: carol@example.com\n    role: r\n    password: a\n",
			wantErr: "username must not contain @",
		},
		{
			name:    "missing role",
			yaml:    "users:\n  - username: x\n    password: a\n",
			wantErr: "role is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "seed.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o600))

			_, err := Load(path)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read seed file")
}
