package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/aussiebroadwan/gatehouse/pkg/tracex"
)

// LockoutPolicy locks an account once Threshold failures land inside the
// trailing Window. The lock lifts Cooldown after the most recent failure.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
	Cooldown  time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: 3,
		Window:    time.Hour,
		Cooldown:  15 * time.Minute,
	}
}

// evaluate derives the lockout status from the failed-attempt aggregate.
func (p LockoutPolicy) evaluate(stats domain.FailedAttemptStats, now time.Time) domain.LockoutStatus {
	status := domain.LockoutStatus{
		FailedCount: stats.Count,
		LastAttempt: stats.LastAt,
	}
	if stats.LastAt == nil || stats.Count < p.Threshold {
		return status
	}

	unlockAt := stats.LastAt.Add(p.Cooldown)
	if !now.Before(unlockAt) {
		return status
	}

	status.Locked = true
	status.RemainingMinutes = int((unlockAt.Sub(now) + time.Minute - 1) / time.Minute)
	return status
}

// LockoutService derives lockout state from the access attempt ledger. The
// ledger is the only input; the user row's failed counter is a mirror.
type LockoutService struct {
	Store   store.Store
	Policy  LockoutPolicy
	Metrics *metricsx.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *LockoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CheckLockout is a pure read. Users without failures, including ids that
// do not exist, are open.
func (s *LockoutService) CheckLockout(ctx context.Context, userID int64) (domain.LockoutStatus, error) {
	now := s.now()
	return s.check(ctx, s.Store, userID, now)
}

func (s *LockoutService) check(ctx context.Context, st store.Store, userID int64, now time.Time) (domain.LockoutStatus, error) {
	ctx, span := tracex.StartStoreSpan(ctx, "count_failed_attempts")
	stats, err := st.Attempts().CountFailedAttemptsSince(ctx, userID, now.Add(-s.Policy.Window))
	tracex.EndSpan(span, err)
	if err != nil {
		return domain.LockoutStatus{}, unavailable("count failed attempts", err)
	}
	return s.Policy.evaluate(stats, now), nil
}

// RecordAttempt appends exactly one ledger row and keeps the advisory
// counter on the user row in step with it. Ledger rows are never removed
// here, a success only resets the mirror.
func (s *LockoutService) RecordAttempt(
	ctx context.Context,
	userID int64,
	outcome domain.Outcome,
	origin string,
	attemptCtx map[string]any,
) error {
	now := s.now()
	l := slogx.FromContext(ctx)

	var before domain.LockoutStatus
	if outcome == domain.OutcomeFailure {
		var err error
		if before, err = s.check(ctx, s.Store, userID, now); err != nil {
			return err
		}
	}

	var after domain.LockoutStatus
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ctx, span := tracex.StartStoreSpan(ctx, "append_access_attempt")
		err := tx.Attempts().AppendAccessAttempt(ctx, domain.AccessAttempt{
			ID:          idx.NewAt(now),
			UserID:      userID,
			Outcome:     outcome,
			Origin:      origin,
			Context:     attemptCtx,
			AttemptedAt: now,
		})
		tracex.EndSpan(span, err)
		if err != nil {
			return unavailable("append access attempt", err)
		}

		if outcome == domain.OutcomeSuccess {
			if err := tx.Users().ResetFailedLogins(ctx, userID); err != nil {
				return unavailable("reset failed logins", err)
			}
			return nil
		}

		if after, err = s.check(ctx, tx, userID, now); err != nil {
			return err
		}

		var lockedUntil *time.Time
		if after.Locked {
			until := after.LastAttempt.Add(s.Policy.Cooldown)
			lockedUntil = &until
		}
		if err := tx.Users().RecordFailedLogin(ctx, userID, lockedUntil); err != nil {
			return unavailable("record failed login", err)
		}
		return nil
	})
	if err != nil {
		l.Error("failed to record access attempt",
			slog.Int64("user_id", userID),
			slog.String("outcome", string(outcome)),
			slog.Any("error", err),
		)
		return err
	}

	if !before.Locked && after.Locked {
		s.Metrics.ObserveLockout()
		l.Warn("account locked",
			slog.Int64("user_id", userID),
			slog.Int("failed_count", after.FailedCount),
			slog.Int("remaining_minutes", after.RemainingMinutes),
		)
	}
	return nil
}
