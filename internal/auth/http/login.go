package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	LoginService *service.LoginService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Authenticates a user with transport-encrypted credentials and issues a session token and a refresh token.
//	@Description	Username and password must be ciphertexts produced with the shared transport secret.
//	@Description	Repeated failures lock the account for a cooldown period.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Encrypted credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"session_token, refresh_token, expires_in, permissions, user"
//	@Failure		400		{object}	authsdk.APIError		"invalid_request"
//	@Failure		401		{object}	authsdk.APIError		"invalid_credentials or two_factor_required"
//	@Failure		423		{object}	authsdk.APIError		"account_locked with remaining_minutes"
//	@Failure		429		{object}	authsdk.APIError		"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.APIError		"server_error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Username == "" || body.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sess, err := h.LoginService.Login(r.Context(), service.LoginRequest{
		Username:   body.Username,
		Password:   body.Password,
		RememberMe: body.RememberMe,
		OTP:        body.OTP,
		Origin:     httpx.IPKeyExtractor(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		SessionToken: sess.SessionToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(sess.ExpiresIn.Seconds()),
		ExpiresAt:    sess.ExpiresAt,
		Permissions:  permissionsOf(sess),
		User:         sess.Subject,
	})
}

func permissionsOf(sess *domain.Session) []string {
	if sess.Permissions == nil {
		return []string{}
	}
	return sess.Permissions
}
