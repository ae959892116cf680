package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout. It always answers 204 so the
// endpoint cannot be used to probe tokens.
type LogoutHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Revokes the refresh token. Session tokens already issued stay valid until they expire.
//	@Description	Returns 204 even for missing, unknown or already revoked tokens.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.LogoutRequest	false	"Refresh token to revoke"
//	@Success		204		"Logged out"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body authsdk.LogoutRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			slogx.FromContext(ctx).Debug("logout body ignored", "err", err)
		}
	}

	if err := h.TokenService.Logout(ctx, body.RefreshToken); err != nil {
		slogx.FromContext(ctx).Error("logout failed", "err", err)
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
