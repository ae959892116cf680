package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox-test")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "contraseña🔒"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.False(t, NeedsRehash(hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("samepassword")
	require.NoError(t, err)
	b, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "hashes should differ due to unique salts")
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", "correct-passwor"} {
		require.ErrorIs(t, VerifyPassword(wrong, hash), ErrPasswordMismatch, "input %q", wrong)
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("imported-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(raw)

	require.NoError(t, VerifyPassword("imported-secret", hash))
	require.ErrorIs(t, VerifyPassword("nope", hash), ErrPasswordMismatch)
	require.True(t, NeedsRehash(hash))

	t.Run("2y prefix", func(t *testing.T) {
		y := "$2y$" + strings.TrimPrefix(hash, "$2a$")
		require.NoError(t, VerifyPassword("imported-secret", y))
	})
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty hash", "", ErrUnsupportedHash},
		{"unknown algorithm", "$scrypt$ln=15,r=8,p=1$c2FsdA$aGFzaA", ErrUnsupportedHash},
		{"plaintext stored", "hunter2", ErrUnsupportedHash},
		{"missing parts", "$argon2id$v=19$m=19456", ErrMalformedHash},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", ErrMalformedHash},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA", ErrMalformedHash},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!", ErrMalformedHash},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA", ErrMalformedHash},
		{"truncated bcrypt", "$2b$10$short", ErrMalformedHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("test-password", tt.hash), tt.want)
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(SecretSize256)
	require.NoError(t, err)
	b, err := GenerateSecret(SecretSize256)
	require.NoError(t, err)

	require.Len(t, a, 43)
	require.NotEqual(t, a, b)

	_, err = GenerateSecret(0)
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	require.Equal(t, Fingerprint("jti-1"), Fingerprint("jti-1"))
	require.NotEqual(t, Fingerprint("jti-1"), Fingerprint("jti-2"))
	require.Len(t, Fingerprint("jti-1"), 43)
}
