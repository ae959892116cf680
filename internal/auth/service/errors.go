package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrTwoFactorRequired    = errors.New("two_factor_required")
	ErrInvalidRefresh       = errors.New("invalid_refresh_token")
	ErrDatastoreUnavailable = errors.New("datastore_unavailable")
	ErrAccountLocked        = errors.New("account_locked")
)

// AccountLockedError is returned while the lockout cooldown is running.
// It matches ErrAccountLocked under errors.Is.
type AccountLockedError struct {
	RemainingMinutes int
	FailedCount      int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account_locked: %d failed attempts, retry in %d minutes", e.FailedCount, e.RemainingMinutes)
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// unavailable wraps a store failure. The cause stays in the chain for logs.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatastoreUnavailable, op, err)
}
