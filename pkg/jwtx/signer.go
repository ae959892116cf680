package jwtx

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 32

type IssuerConfig struct {
	// Issuer is written to and enforced on the "iss" claim.
	Issuer string

	// SessionSecret signs session tokens. RefreshSecret signs refresh tokens
	// and falls back to SessionSecret when empty.
	SessionSecret []byte
	RefreshSecret []byte

	// MaxSessionTTL caps every session token lifetime. It bounds how long a
	// stale permission snapshot can stay usable.
	MaxSessionTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// HS256Issuer issues and verifies session and refresh tokens signed with a
// process-wide HMAC secret.
type HS256Issuer struct {
	cfg IssuerConfig
}

var _ Verifier = (*HS256Issuer)(nil)

func NewHS256Issuer(cfg IssuerConfig) (*HS256Issuer, error) {
	if len(cfg.SessionSecret) < MinSecretLength {
		return nil, fmt.Errorf("jwtx: session secret must be at least %d bytes", MinSecretLength)
	}
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.SessionSecret
	}
	if len(cfg.RefreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("jwtx: refresh secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.MaxSessionTTL <= 0 {
		cfg.MaxSessionTTL = DefaultMaxSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HS256Issuer{cfg: cfg}, nil
}

// MaxSessionTTL returns the configured session lifetime cap.
func (i *HS256Issuer) MaxSessionTTL() time.Duration { return i.cfg.MaxSessionTTL }

// IssueSession signs a session token for s embedding perms. A ttl above the
// configured maximum is clamped to it.
func (i *HS256Issuer) IssueSession(s Subject, perms []string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("jwtx: ttl must be positive")
	}
	ttl = min(ttl, i.cfg.MaxSessionTTL)

	claims := newSessionClaims(s, perms, i.cfg.Issuer, i.cfg.Now(), ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SessionSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign session: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssueRefresh signs a refresh token for userID. The returned jti identifies
// the token for revocation.
func (i *HS256Issuer) IssueRefresh(userID int64, ttl time.Duration) (token, jti string, expiresAt time.Time, err error) {
	if ttl <= 0 {
		return "", "", time.Time{}, errors.New("jwtx: ttl must be positive")
	}

	jti = uuid.NewString()
	claims := newRefreshClaims(userID, jti, i.cfg.Issuer, i.cfg.Now(), ttl)
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.RefreshSecret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("jwtx: sign refresh: %w", err)
	}
	return token, jti, claims.ExpiresAt.Time, nil
}

// VerifySession checks signature, issuer and expiry of a session token.
// Errors wrap ErrMalformed, ErrInvalidSig, ErrExpired or ErrWrongTokenType.
func (i *HS256Issuer) VerifySession(token string) (SessionClaims, error) {
	var claims SessionClaims
	if err := i.parse(token, &claims, i.cfg.SessionSecret); err != nil {
		return SessionClaims{}, err
	}
	if claims.TokenType != TokenTypeSession {
		return SessionClaims{}, ErrWrongTokenType
	}
	if _, err := parseSubject(claims.Subject); err != nil {
		return SessionClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh checks a refresh token the same way VerifySession does.
func (i *HS256Issuer) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(token, &claims, i.cfg.RefreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return RefreshClaims{}, ErrWrongTokenType
	}
	if _, err := parseSubject(claims.Subject); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

func (i *HS256Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func parseSubject(sub string) (int64, error) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q", ErrInvalidClaim, sub)
	}
	return id, nil
}
