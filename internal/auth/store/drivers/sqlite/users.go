package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, password_hash, role_id, active, deleted,
	failed_attempts, locked_until, password_changed_at, two_factor_secret,
	two_factor_enabled, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                    domain.User
		lockedUntil, changed sql.NullInt64
		secret               sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.Active, &u.Deleted,
		&u.FailedAttempts, &lockedUntil, &changed, &secret,
		&u.TwoFactorEnabled, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.LockedUntil = fromNullMillis(lockedUntil)
	u.PasswordChangedAt = fromNullMillis(changed)
	u.TwoFactorSecret = secret.String
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// FindActiveUserByIdentifier prefers a username match when the identifier is
// both one user's username and another's email.
func (r *usersRepo) FindActiveUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE (username = ?1 OR lower(email) = lower(?1))
		  AND active = 1 AND deleted = 0
		ORDER BY username = ?1 DESC
		LIMIT 1`, identifier))
}

func (r *usersRepo) FindUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	if err := store.CheckUsername(u.Username); err != nil {
		return 0, err
	}

	now := u.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role_id, active, deleted,
			password_changed_at, two_factor_secret, two_factor_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.RoleID, u.Active, u.Deleted,
		toNullMillis(u.PasswordChangedAt), toNullString(u.TwoFactorSecret), u.TwoFactorEnabled,
		toMillis(now), toMillis(now),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET active = ?, updated_at = ? WHERE id = ?`,
		active, toMillis(time.Now()), id))
}

func (r *usersRepo) SoftDelete(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET deleted = 1, updated_at = ? WHERE id = ?`,
		toMillis(time.Now()), id))
}

func (r *usersRepo) RecordFailedLogin(ctx context.Context, id int64, lockedUntil *time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = failed_attempts + 1, locked_until = ?, updated_at = ?
		WHERE id = ?`,
		toNullMillis(lockedUntil), toMillis(time.Now()), id))
}

func (r *usersRepo) ResetFailedLogins(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = 0, locked_until = NULL, updated_at = ?
		WHERE id = ?`,
		toMillis(time.Now()), id))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(time.Now()), id))
}
