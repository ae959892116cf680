package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/aussiebroadwan/gatehouse/pkg/tracex"
)

// TokenIssuer is the subset of jwtx.HS256Issuer the token service needs.
type TokenIssuer interface {
	IssueSession(s jwtx.Subject, perms []string, ttl time.Duration) (string, time.Time, error)
	IssueRefresh(userID int64, ttl time.Duration) (token, jti string, expiresAt time.Time, err error)
	VerifyRefresh(token string) (jwtx.RefreshClaims, error)
	MaxSessionTTL() time.Duration
}

type TokenService struct {
	Issuer      TokenIssuer
	Store       store.Store
	Permissions *PermissionResolver
	Metrics     *metricsx.Metrics

	SessionTTL         time.Duration
	RefreshTTL         time.Duration
	RememberRefreshTTL time.Duration
}

func subjectOf(u domain.User) jwtx.Subject {
	return jwtx.Subject{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		RoleID:   u.RoleID,
	}
}

// IssuePair signs a session token carrying perms and a refresh token whose
// lifetime depends on remember.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User, perms []string, remember bool) (*domain.Session, error) {
	sess, err := s.issueSession(u, perms)
	if err != nil {
		return nil, err
	}

	ttl := s.RefreshTTL
	if remember {
		ttl = s.RememberRefreshTTL
	}
	refresh, _, _, err := s.Issuer.IssueRefresh(u.ID, ttl)
	if err != nil {
		return nil, err
	}
	sess.RefreshToken = refresh
	return sess, nil
}

func (s *TokenService) issueSession(u domain.User, perms []string) (*domain.Session, error) {
	subject := subjectOf(u)
	token, expiresAt, err := s.Issuer.IssueSession(subject, perms, s.SessionTTL)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		SessionToken: token,
		ExpiresIn:    min(s.SessionTTL, s.Issuer.MaxSessionTTL()),
		ExpiresAt:    expiresAt,
		Permissions:  perms,
		Subject:      subject,
	}, nil
}

// Refresh exchanges a refresh token for a new session token. The user is
// re-loaded and permissions re-resolved, so revocations and deactivations
// take effect here. The refresh token is returned unchanged.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (sess *domain.Session, err error) {
	ctx, span := tracex.StartRefreshSpan(ctx)
	defer func() {
		tracex.EndSpan(span, err)
		switch {
		case err == nil:
			s.Metrics.ObserveRefresh(metricsx.RefreshSuccess)
		case errors.Is(err, ErrInvalidRefresh):
			s.Metrics.ObserveRefresh(metricsx.RefreshInvalid)
		default:
			s.Metrics.ObserveRefresh(metricsx.RefreshError)
		}
	}()
	l := slogx.FromContext(ctx)

	claims, err := s.Issuer.VerifyRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		l.Info("refresh token rejected", slog.Any("reason", err))
		return nil, ErrInvalidRefresh
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	revoked, err := s.Store.Revocations().IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, unavailable("check revocation", err)
	}
	if revoked {
		l.Info("revoked refresh token presented", slog.Int64("user_id", userID))
		return nil, ErrInvalidRefresh
	}

	u, err := s.Store.Users().FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, unavailable("find user", err)
	}
	if !u.CanAuthenticate() {
		l.Info("refresh for disabled account", slog.Int64("user_id", userID))
		return nil, ErrInvalidRefresh
	}

	perms, err := s.Permissions.Resolve(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	sess, err = s.issueSession(u, perms)
	if err != nil {
		return nil, err
	}
	sess.RefreshToken = refreshToken
	return sess, nil
}

// Logout denylists the refresh token's jti until it would have expired.
// Empty, invalid and expired tokens are accepted silently; revoking twice
// is harmless. Only a store failure is reported.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	claims, err := s.Issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	if err := s.Store.Revocations().RevokeToken(ctx, claims.ID, userID, claims.ExpiresAt.Time); err != nil {
		return unavailable("revoke token", err)
	}
	return nil
}
