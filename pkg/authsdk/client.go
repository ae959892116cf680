package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
)

// Client talks to the gatehouse authentication service. It encrypts login
// credentials with the shared transport secret before they leave the process.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	codec *cryptox.TransportCodec
}

// NewClient creates a client. transportSecret must match the server's
// AUTH_TRANSPORT_SECRET.
func NewClient(baseURL, transportSecret string) (*Client, error) {
	codec, err := cryptox.NewTransportCodec(transportSecret, cryptox.TransportParamsV1)
	if err != nil {
		return nil, fmt.Errorf("authsdk: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		codec: codec,
	}, nil
}

// LoginOptions are the optional parts of a login.
type LoginOptions struct {
	RememberMe bool
	OTP        string
}

// Login authenticates with a username (or email) and password and returns
// a Session that refreshes its session token on demand.
func (c *Client) Login(ctx context.Context, username, password string, opts LoginOptions) (*Session, error) {
	resp, err := c.LoginRaw(ctx, username, password, opts)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// LoginRaw performs the login call and returns the response as is.
func (c *Client) LoginRaw(ctx context.Context, username, password string, opts LoginOptions) (*LoginResponse, error) {
	encUser, err := c.codec.Encrypt(username)
	if err != nil {
		return nil, fmt.Errorf("encrypt username: %w", err)
	}
	encPass, err := c.codec.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	req := LoginRequest{
		Username:   encUser,
		Password:   encPass,
		RememberMe: opts.RememberMe,
		OTP:        opts.OTP,
	}

	var out LoginResponse
	if err := c.postJSON(ctx, "/v1/auth/login", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new session token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	if err := c.postJSON(ctx, "/v1/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes a refresh token. It succeeds for unknown or expired tokens.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.postJSON(ctx, "/v1/auth/logout", "", LogoutRequest{RefreshToken: refreshToken}, nil, http.StatusNoContent)
}

// Me describes the bearer of sessionToken.
func (c *Client) Me(ctx context.Context, sessionToken string) (*MeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/me", nil, bearer(sessionToken))
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Authorize asks the gate whether sessionToken carries permission. A
// missing permission comes back as an error matching ErrForbidden.
func (c *Client) Authorize(ctx context.Context, sessionToken, permission string) (*AuthorizeResponse, error) {
	var out AuthorizeResponse
	err := c.postJSON(ctx, "/v1/auth/authorize", sessionToken, AuthorizeRequest{Permission: permission}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
