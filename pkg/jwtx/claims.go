package jwtx

import (
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes used when the service is not configured otherwise.
const (
	DefaultSessionTTL         = time.Hour
	DefaultMaxSessionTTL      = 12 * time.Hour
	DefaultRefreshTTL         = 24 * time.Hour
	DefaultRememberRefreshTTL = 30 * 24 * time.Hour
)

// Token type markers carried in the "typ" claim so one kind can never be
// replayed as the other, even when both share a secret.
const (
	TokenTypeSession = "session"
	TokenTypeRefresh = "refresh"
)

// Subject is the identity embedded in a session token.
type Subject struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   int64  `json:"role_id"`
}

// SessionClaims are the claims of a session token. Permissions is the set
// resolved at issuance; it is not re-read until the token is re-issued.
type SessionClaims struct {
	jwt.RegisteredClaims

	TokenType   string   `json:"typ"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	RoleID      int64    `json:"role_id"`
	Permissions []string `json:"permissions"`
}

// Identity returns the Subject the token was issued to.
func (c SessionClaims) Identity() Subject {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return Subject{
		UserID:   id,
		Username: c.Username,
		Email:    c.Email,
		RoleID:   c.RoleID,
	}
}

// HasPermission reports whether name is in the embedded permission set.
func (c SessionClaims) HasPermission(name string) bool {
	return slices.Contains(c.Permissions, name)
}

// RefreshClaims carry nothing but the user id (sub) and a jti used for
// revocation on logout.
type RefreshClaims struct {
	jwt.RegisteredClaims

	TokenType string `json:"typ"`
}

// UserID parses the subject claim.
func (c RefreshClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

func newSessionClaims(s Subject, perms []string, issuer string, now time.Time, ttl time.Duration) SessionClaims {
	if perms == nil {
		perms = []string{}
	}
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType:   TokenTypeSession,
		Username:    s.Username,
		Email:       s.Email,
		RoleID:      s.RoleID,
		Permissions: perms,
	}
}

func newRefreshClaims(userID int64, jti, issuer string, now time.Time, ttl time.Duration) RefreshClaims {
	return RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		TokenType: TokenTypeRefresh,
	}
}
