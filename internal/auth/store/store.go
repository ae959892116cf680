package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrAlreadyExists   = errors.New("store: already exists")
	ErrInvalidUsername = errors.New("store: username must be non-empty and must not contain @")
)

// CheckUsername rejects usernames that could collide with an email address
// during identifier lookup.
func CheckUsername(username string) error {
	if strings.TrimSpace(username) == "" || strings.Contains(username, "@") {
		return ErrInvalidUsername
	}
	return nil
}

// Store is the datastore collaborator. Concrete drivers (sqlite, postgres)
// implement it. Repositories are reached through accessors so a Tx exposes the
// same surface and nested transactions are impossible by construction.
type Store interface {
	Users() Users
	Attempts() Attempts
	Permissions() Permissions
	Revocations() Revocations

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// FindActiveUserByIdentifier matches username exactly or email
	// case-insensitively, and only returns active, non-deleted users.
	// Usernames never contain @ (see CheckUsername), so at most one user
	// matches.
	FindActiveUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// FindUserByID returns the user whatever its active or deleted flags.
	FindUserByID(ctx context.Context, id int64) (domain.User, error)

	// CreateUser returns the assigned id. Duplicate username or email gives
	// ErrAlreadyExists, and a name CheckUsername rejects gives
	// ErrInvalidUsername without touching the database.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	SetActive(ctx context.Context, id int64, active bool) error
	SoftDelete(ctx context.Context, id int64) error

	// RecordFailedLogin bumps the advisory failed counter and overwrites
	// locked_until (nil clears it).
	RecordFailedLogin(ctx context.Context, id int64, lockedUntil *time.Time) error

	// ResetFailedLogins zeroes the advisory counter and clears locked_until.
	ResetFailedLogins(ctx context.Context, id int64) error

	// UpdatePasswordHash replaces the stored hash of the same password, so
	// password_changed_at is left alone.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type Attempts interface {
	AppendAccessAttempt(ctx context.Context, a domain.AccessAttempt) error

	// CountFailedAttemptsSince counts fallido rows with attempted_at >= since.
	CountFailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (domain.FailedAttemptStats, error)

	// DeleteAttemptsBefore prunes rows older than cutoff. Housekeeping only.
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Permissions interface {
	// ResolveRolePermissions returns the names of the active permissions
	// granted to roleID.
	ResolveRolePermissions(ctx context.Context, roleID int64) ([]string, error)

	// Provisioning. Create* return ErrAlreadyExists on a duplicate name.
	CreateRole(ctx context.Context, name string) (int64, error)
	FindRoleByName(ctx context.Context, name string) (domain.Role, error)
	CreatePermission(ctx context.Context, name string, active bool) (int64, error)
	FindPermissionByName(ctx context.Context, name string) (domain.Permission, error)
	SetPermissionActive(ctx context.Context, permissionID int64, active bool) error

	// GrantPermission is idempotent.
	GrantPermission(ctx context.Context, roleID, permissionID int64) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) error
}

type Revocations interface {
	// RevokeToken denylists a refresh token id until expiresAt. Idempotent.
	RevokeToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}
