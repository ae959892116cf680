package httpx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// AuthnMiddleware rejects requests without a valid session token and stores
// the verified claims in the request context.
func AuthnMiddleware(g *Gate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.verify(r)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("authentication failed", "err", err)
				WriteUnauthenticated(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
		})
	}
}

// RequirePermission admits only callers whose token carries permission.
// Missing, malformed, forged and expired tokens all produce the same 401.
func RequirePermission(g *Gate, permission string) Middleware {
	check := g.RequirePermission(permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := check(r)
			if !d.Authorized {
				WriteDecision(w, r, d)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), d.Claims)))
		})
	}
}

// WriteDecision writes the error response for a denied Decision.
func WriteDecision(w http.ResponseWriter, r *http.Request, d Decision) {
	log := slogx.FromContext(r.Context())
	if errors.Is(d.Err, ErrForbidden) {
		log.Info("permission denied", "user_id", d.Claims.Identity().UserID, "err", d.Err)
		WriteForbidden(w)
		return
	}
	log.Debug("authentication failed", "err", d.Err)
	WriteUnauthenticated(w)
}

// WriteUnauthenticated writes the single 401 body used for every token
// failure so callers cannot tell missing, forged and expired tokens apart.
func WriteUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="gatehouse"`)
	WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
}

func WriteForbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
}
