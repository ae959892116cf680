package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a session token and gives you back the claims if it's
// legit. It never performs I/O.
type Verifier interface {
	VerifySession(token string) (SessionClaims, error)
}

var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrInvalidSig     = errors.New("jwtx: invalid signature")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrNotYetValid    = errors.New("jwtx: token not yet valid")
	ErrIssuer         = errors.New("jwtx: issuer mismatch")
	ErrWrongTokenType = errors.New("jwtx: wrong token type")
	ErrInvalidClaim   = errors.New("jwtx: invalid claims")
)

// classify folds golang-jwt's error tree into our sentinels. The original
// error stays in the chain for server-side logs.
func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		kind = ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		kind = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		kind = ErrIssuer
	default:
		kind = ErrInvalidClaim
	}
	return fmt.Errorf("%w: %w", kind, err)
}
