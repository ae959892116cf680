package authsdk

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// refreshSkew renews the session token this long before it expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated login. Its methods renew the session token
// with the refresh token when it is about to expire. Safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	sessionToken string
	refreshToken string
	expiresAt    time.Time
	permissions  []string
	user         jwtx.Subject
}

func newSession(c *Client, resp *LoginResponse) *Session {
	return &Session{
		client:       c,
		sessionToken: resp.SessionToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - refreshSkew),
		permissions:  resp.Permissions,
		user:         resp.User,
	}
}

// validToken returns a session token, refreshing first if it has expired.
func (s *Session) validToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.sessionToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.sessionToken, nil
	}
	if s.refreshToken == "" {
		return "", fmt.Errorf("session token expired and no refresh token available")
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}

	s.sessionToken = resp.SessionToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - refreshSkew)
	s.permissions = resp.Permissions
	return s.sessionToken, nil
}

// Refresh renews the session token now and picks up permission changes.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	_, err := s.validToken(ctx)
	return err
}

// Me describes the session's user as the server sees the token.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	token, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, token)
}

// Authorize asks the server whether the session holds permission.
func (s *Session) Authorize(ctx context.Context, permission string) (*AuthorizeResponse, error) {
	token, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Authorize(ctx, token, permission)
}

// Logout revokes the refresh token. The session cannot refresh afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	if refreshToken == "" {
		return nil
	}
	return s.client.Logout(ctx, refreshToken)
}

func (s *Session) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) User() jwtx.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Permissions returns a copy of the permission snapshot of the current
// session token.
func (s *Session) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.permissions)
}

// HasPermission checks the local snapshot only. Use Authorize for the
// server's answer.
func (s *Session) HasPermission(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.permissions, name)
}
