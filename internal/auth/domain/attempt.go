package domain

import (
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/idx"
)

// Outcome values are stored verbatim in the access attempt ledger.
type Outcome string

const (
	OutcomeSuccess Outcome = "exitoso"
	OutcomeFailure Outcome = "fallido"
)

func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// AccessAttempt is one append-only ledger row.
type AccessAttempt struct {
	ID          idx.ID
	UserID      int64
	Outcome     Outcome
	Origin      string
	Context     map[string]any
	AttemptedAt time.Time
}

// FailedAttemptStats aggregates fallido rows since a point in time. LastAt is
// nil when there are none.
type FailedAttemptStats struct {
	Count  int
	LastAt *time.Time
}

type LockoutStatus struct {
	Locked           bool       `json:"locked"`
	FailedCount      int        `json:"failed_count"`
	RemainingMinutes int        `json:"remaining_minutes"`
	LastAttempt      *time.Time `json:"last_attempt,omitempty"`
}
