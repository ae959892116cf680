package authsdk

import (
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// ============================================================================
// Login and Token Types
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login. Username and Password
// hold transport ciphertexts, never plaintext.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
	OTP        string `json:"otp,omitempty"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	SessionToken string `json:"session_token"`
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the session token lifetime in seconds.
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`

	// Permissions is the snapshot embedded in the session token.
	Permissions []string     `json:"permissions"`
	User        jwtx.Subject `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries a new session token. The refresh token is not
// rotated.
type RefreshResponse struct {
	SessionToken string    `json:"session_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Permissions  []string  `json:"permissions"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ============================================================================
// Identity and Authorization Types
// ============================================================================

// MeResponse describes the bearer of a session token, read from the token
// alone.
type MeResponse struct {
	User        jwtx.Subject `json:"user"`
	Permissions []string     `json:"permissions"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// AuthorizeRequest asks whether the bearer holds Permission.
type AuthorizeRequest struct {
	Permission string `json:"permission"`
}

type AuthorizeResponse struct {
	Authorized bool         `json:"authorized"`
	Permission string       `json:"permission"`
	User       jwtx.Subject `json:"user"`
}

// ============================================================================
// Health Types
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
