package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// AuthorizeHandler serves POST /v1/auth/authorize, the gate exposed to other
// services that hold a user's session token.
type AuthorizeHandler struct {
	Gate *httpx.Gate
}

// ServeHTTP godoc
//
//	@Summary		Check a permission
//	@Description	Verifies the bearer session token and checks the requested permission against the snapshot embedded in it.
//	@Description	Missing, malformed, forged and expired tokens all return the same 401.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.AuthorizeRequest	true	"Permission to check"
//	@Success		200		{object}	authsdk.AuthorizeResponse	"authorized, permission, user"
//	@Failure		400		{object}	authsdk.APIError			"invalid_request"
//	@Failure		401		{object}	authsdk.APIError			"unauthenticated"
//	@Failure		403		{object}	authsdk.APIError			"forbidden"
//	@Router			/v1/auth/authorize [post].
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body authsdk.AuthorizeRequest
	if err := httpx.DecodeJSON(r, &body); err != nil || strings.TrimSpace(body.Permission) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	d := h.Gate.RequirePermission(body.Permission)(r)
	if !d.Authorized {
		httpx.WriteDecision(w, r, d)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthorizeResponse{
		Authorized: true,
		Permission: body.Permission,
		User:       d.Claims.Identity(),
	})
}
