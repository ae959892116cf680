package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

var (
	ErrMissingToken = errors.New("httpx: missing bearer token")
	ErrInvalidToken = errors.New("httpx: invalid token")
	ErrForbidden    = errors.New("httpx: forbidden")
)

// Decision is the outcome of a permission check. Err is nil exactly when
// Authorized is true, otherwise it wraps ErrMissingToken, ErrInvalidToken or
// ErrForbidden.
type Decision struct {
	Authorized bool
	Err        error

	// Claims is set whenever the token verified, including on ErrForbidden.
	Claims jwtx.SessionClaims
}

// Status maps the decision to the HTTP status a caller should answer with.
// Missing and invalid tokens are deliberately indistinguishable.
func (d Decision) Status() int {
	switch {
	case d.Authorized:
		return http.StatusOK
	case errors.Is(d.Err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// Checker evaluates one request against a fixed requirement.
type Checker func(*http.Request) Decision

// GateObserver is notified of every permission decision.
type GateObserver func(permission string, d Decision)

type GateOption func(*Gate)

func WithObserver(o GateObserver) GateOption {
	return func(g *Gate) { g.observe = o }
}

// Gate authenticates requests against the session token alone. Everything it
// needs is inside the token, so it never touches the datastore.
type Gate struct {
	verifier jwtx.Verifier
	observe  GateObserver
}

func NewGate(v jwtx.Verifier, opts ...GateOption) *Gate {
	g := &Gate{verifier: v}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate returns the caller's identity for endpoints that need no
// specific permission.
func (g *Gate) Authenticate(r *http.Request) (jwtx.Subject, error) {
	claims, err := g.verify(r)
	if err != nil {
		return jwtx.Subject{}, err
	}
	return claims.Identity(), nil
}

// RequirePermission returns a Checker that admits only tokens whose embedded
// permission set contains name.
func (g *Gate) RequirePermission(name string) Checker {
	return func(r *http.Request) Decision {
		d := g.decide(r, name)
		if g.observe != nil {
			g.observe(name, d)
		}
		return d
	}
}

func (g *Gate) decide(r *http.Request, name string) Decision {
	claims, err := g.verify(r)
	if err != nil {
		return Decision{Err: err}
	}
	if !claims.HasPermission(name) {
		return Decision{Err: fmt.Errorf("%w: %s", ErrForbidden, name), Claims: claims}
	}
	return Decision{Authorized: true, Claims: claims}
}

func (g *Gate) verify(r *http.Request) (jwtx.SessionClaims, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return jwtx.SessionClaims{}, err
	}

	claims, err := g.verifier.VerifySession(raw)
	if err != nil {
		return jwtx.SessionClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMissingToken
	}
	return token, nil
}
