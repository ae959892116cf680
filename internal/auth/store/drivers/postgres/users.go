package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
)

type usersRepo struct {
	q querier
}

type userRow struct {
	ID                int64          `db:"id"`
	Username          string         `db:"username"`
	Email             string         `db:"email"`
	PasswordHash      string         `db:"password_hash"`
	RoleID            int64          `db:"role_id"`
	Active            bool           `db:"active"`
	Deleted           bool           `db:"deleted"`
	FailedAttempts    int            `db:"failed_attempts"`
	LockedUntil       sql.NullTime   `db:"locked_until"`
	PasswordChangedAt sql.NullTime   `db:"password_changed_at"`
	TwoFactorSecret   sql.NullString `db:"two_factor_secret"`
	TwoFactorEnabled  bool           `db:"two_factor_enabled"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r userRow) domain() domain.User {
	return domain.User{
		ID:                r.ID,
		Username:          r.Username,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		RoleID:            r.RoleID,
		Active:            r.Active,
		Deleted:           r.Deleted,
		FailedAttempts:    r.FailedAttempts,
		LockedUntil:       nullTimePtr(r.LockedUntil),
		PasswordChangedAt: nullTimePtr(r.PasswordChangedAt),
		TwoFactorSecret:   r.TwoFactorSecret.String,
		TwoFactorEnabled:  r.TwoFactorEnabled,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

const userColumns = `id, username, email, password_hash, role_id, active, deleted,
	failed_attempts, locked_until, password_changed_at, two_factor_secret,
	two_factor_enabled, created_at, updated_at`

func (r *usersRepo) FindActiveUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	var row userRow
	err := r.q.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users
		WHERE (username = $1 OR lower(email) = lower($1))
		  AND active AND NOT deleted
		ORDER BY username = $1 DESC
		LIMIT 1`, identifier)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.domain(), nil
}

func (r *usersRepo) FindUserByID(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	if err := r.q.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.domain(), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	if err := store.CheckUsername(u.Username); err != nil {
		return 0, err
	}

	now := u.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	var id int64
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO users (username, email, password_hash, role_id, active, deleted,
			password_changed_at, two_factor_secret, two_factor_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.RoleID, u.Active, u.Deleted,
		optionalTime(u.PasswordChangedAt), optionalString(u.TwoFactorSecret), u.TwoFactorEnabled, now,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *usersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return requireAffected(r.q.ExecContext(ctx,
		`UPDATE users SET active = $1, updated_at = now() WHERE id = $2`, active, id))
}

func (r *usersRepo) SoftDelete(ctx context.Context, id int64) error {
	return requireAffected(r.q.ExecContext(ctx,
		`UPDATE users SET deleted = TRUE, updated_at = now() WHERE id = $1`, id))
}

func (r *usersRepo) RecordFailedLogin(ctx context.Context, id int64, lockedUntil *time.Time) error {
	return requireAffected(r.q.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = failed_attempts + 1, locked_until = $1, updated_at = now()
		WHERE id = $2`, optionalTime(lockedUntil), id))
}

func (r *usersRepo) ResetFailedLogins(ctx context.Context, id int64) error {
	return requireAffected(r.q.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1`, id))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return requireAffected(r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id))
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func optionalString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
