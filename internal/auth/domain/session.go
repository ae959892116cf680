package domain

import (
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// Session is what a successful login or refresh hands back. Permissions is the
// same snapshot embedded in SessionToken, exposed so clients can render
// capability-gated UI without decoding the token.
type Session struct {
	SessionToken string
	RefreshToken string
	ExpiresIn    time.Duration
	ExpiresAt    time.Time
	Permissions  []string
	Subject      jwtx.Subject
}
