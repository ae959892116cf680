package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// writeServiceError maps a service error onto its API error. Transport
// failures are reported exactly like bad credentials.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *service.AccountLockedError

	switch {
	case errors.As(err, &locked):
		authsdk.AccountLocked(locked.RemainingMinutes).WriteError(w)
	case errors.Is(err, cryptox.ErrTransportDecryption),
		errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrTwoFactorRequired):
		authsdk.ErrTwoFactorRequired.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		authsdk.ErrUnauthenticated.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
