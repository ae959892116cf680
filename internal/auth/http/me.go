package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// MeHandler serves GET /v1/auth/me from the verified token alone.
type MeHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the identity and permission snapshot embedded in the session token. The datastore is not consulted.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"user, permissions, expires_at"
//	@Failure		401	{object}	authsdk.APIError	"unauthenticated"
//	@Router			/v1/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	resp := authsdk.MeResponse{
		User:        claims.Identity(),
		Permissions: claims.Permissions,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
