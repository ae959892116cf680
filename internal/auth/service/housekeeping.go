package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/robfig/cron/v3"
)

const DefaultHousekeepingSchedule = "@every 1h"

// HousekeepingService prunes the access attempt ledger and expired refresh
// token revocations on a cron schedule. It never runs inside a login.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Schedule  string
	Retention time.Duration

	// MinRetention floors Retention. Set it to the lockout window so rows that
	// still decide a lockout are never pruned.
	MinRetention time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	cron *cron.Cron
}

// NewHousekeepingService creates a housekeeping service. An empty schedule
// defaults to hourly.
func NewHousekeepingService(st store.Store, logger *slog.Logger, schedule string, retention time.Duration) *HousekeepingService {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}
	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Schedule:  schedule,
		Retention: retention,
	}
}

// Start registers the cleanup job and starts the scheduler. It is
// non-blocking; call Stop to shut it down.
func (s *HousekeepingService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("housekeeping service started", "schedule", s.Schedule, "retention", s.Retention)
	return nil
}

// Stop waits for a running cleanup to finish.
func (s *HousekeepingService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("housekeeping service stopped")
}

// RunOnce performs one cleanup pass. Each deletion is independent, so a
// failure in one does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	s.Logger.Info("starting housekeeping cleanup")

	var attempts, revocations int64
	var err error

	if s.Retention > 0 {
		retention := max(s.Retention, s.MinRetention)
		if attempts, err = s.Store.Attempts().DeleteAttemptsBefore(ctx, now.Add(-retention)); err != nil {
			s.Logger.Error("failed to prune access attempts", "error", err)
		}
	}

	if revocations, err = s.Store.Revocations().DeleteExpiredRevocations(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired revocations", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"attempts_deleted", attempts,
		"revocations_deleted", revocations,
	)
}
