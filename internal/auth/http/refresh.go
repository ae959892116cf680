package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh. The new session token carries
// the user's permissions as they are now, not as they were at login.
type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Refresh the session token
//	@Description	Exchanges a refresh token for a new session token with a freshly resolved permission set.
//	@Description	The refresh token is not rotated. Revoked, expired and unknown refresh tokens are rejected alike.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.RefreshResponse	"session_token, expires_in, permissions"
//	@Failure		400		{object}	authsdk.APIError		"invalid_request"
//	@Failure		401		{object}	authsdk.APIError		"unauthenticated"
//	@Failure		500		{object}	authsdk.APIError		"server_error"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body authsdk.RefreshRequest
	if err := httpx.DecodeJSON(r, &body); err != nil || body.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sess, err := h.TokenService.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		SessionToken: sess.SessionToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(sess.ExpiresIn.Seconds()),
		ExpiresAt:    sess.ExpiresAt,
		Permissions:  permissionsOf(sess),
	})
}
