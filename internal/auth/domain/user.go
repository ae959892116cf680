package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // argon2id PHC, or a legacy bcrypt hash
	RoleID       int64
	Active       bool
	Deleted      bool

	// FailedAttempts and LockedUntil mirror the ledger for operators. Lockout
	// decisions are made from the ledger, never from these columns.
	FailedAttempts int
	LockedUntil    *time.Time

	PasswordChangedAt *time.Time
	TwoFactorSecret   string // base32 TOTP secret
	TwoFactorEnabled  bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanAuthenticate reports whether the account may log in or refresh.
func (u User) CanAuthenticate() bool {
	return u.Active && !u.Deleted
}
