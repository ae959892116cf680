package httpx

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

type ctxKey string

const CtxKeyClaims ctxKey = "claims"

func contextWithClaims(ctx context.Context, c jwtx.SessionClaims) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, c)
}

// ClaimsFromContext returns the verified session claims placed in the
// context by AuthnMiddleware or RequirePermission.
func ClaimsFromContext(ctx context.Context) (jwtx.SessionClaims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.SessionClaims)
	return c, ok
}

// SubjectFromContext returns the caller identity of an authenticated request.
func SubjectFromContext(ctx context.Context) (jwtx.Subject, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return jwtx.Subject{}, false
	}
	return c.Identity(), true
}
