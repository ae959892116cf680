package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/aussiebroadwan/gatehouse/pkg/tracex"
)

// CredentialDecrypter opens the transport-encrypted username and password.
type CredentialDecrypter interface {
	Decrypt(ciphertext string) (string, error)
}

type LoginRequest struct {
	// Username and Password are transport ciphertexts. Username may hold an
	// email address.
	Username string
	Password string

	RememberMe bool
	OTP        string

	Origin    string
	UserAgent string
}

type LoginService struct {
	Codec       CredentialDecrypter
	Store       store.Store
	Lockout     *LockoutService
	Permissions *PermissionResolver
	Tokens      *TokenService
	TwoFactor   *TwoFactorVerifier
	Metrics     *metricsx.Metrics
}

// Login authenticates a user and issues a session. Steps run strictly in
// order; a locked account is rejected before its password is compared.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	username, password, err := s.decrypt(req)
	if err != nil {
		l.Warn("login rejected: credential transport", slog.String("origin", req.Origin))
		s.Metrics.ObserveLogin(metricsx.OutcomeTransportError)
		return nil, err
	}

	ctx, span := tracex.StartLoginSpan(ctx, username)
	sess, userID, err := s.login(ctx, username, password, req)
	outcome := loginOutcome(err)
	tracex.EndLoginSpan(span, outcome, userID, err)
	s.Metrics.ObserveLogin(outcome)

	switch outcome {
	case metricsx.OutcomeSuccess:
		l.Info("login succeeded", slog.Int64("user_id", userID), slog.String("origin", req.Origin))
	case metricsx.OutcomeError:
		l.Error("login failed", slog.Int64("user_id", userID), slog.Any("error", err))
	default:
		l.Warn("login rejected",
			slog.String("outcome", outcome),
			slog.Int64("user_id", userID),
			slog.String("origin", req.Origin),
		)
	}
	return sess, err
}

func (s *LoginService) decrypt(req LoginRequest) (username, password string, err error) {
	username, err = s.Codec.Decrypt(req.Username)
	if err != nil {
		return "", "", fmt.Errorf("username: %w", err)
	}
	password, err = s.Codec.Decrypt(req.Password)
	if err != nil {
		return "", "", fmt.Errorf("password: %w", err)
	}
	return strings.TrimSpace(username), password, nil
}

func (s *LoginService) login(ctx context.Context, identifier, password string, req LoginRequest) (*domain.Session, int64, error) {
	if identifier == "" || password == "" {
		return nil, 0, ErrInvalidCredentials
	}

	ctx, span := tracex.StartStoreSpan(ctx, "find_active_user")
	u, err := s.Store.Users().FindActiveUserByIdentifier(ctx, identifier)
	tracex.EndSpan(span, err)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, ErrInvalidCredentials
	}
	if err != nil {
		return nil, 0, unavailable("find user", err)
	}

	status, err := s.Lockout.CheckLockout(ctx, u.ID)
	if err != nil {
		return nil, u.ID, err
	}
	if status.Locked {
		return nil, u.ID, &AccountLockedError{
			RemainingMinutes: status.RemainingMinutes,
			FailedCount:      status.FailedCount,
		}
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Error("stored password hash unusable",
				slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
		return nil, u.ID, s.fail(ctx, u.ID, req.Origin, "password")
	}

	if u.TwoFactorEnabled {
		if strings.TrimSpace(req.OTP) == "" {
			return nil, u.ID, ErrTwoFactorRequired
		}
		if !s.TwoFactor.Verify(req.OTP, u.TwoFactorSecret) {
			return nil, u.ID, s.fail(ctx, u.ID, req.Origin, "totp")
		}
	}

	err = s.Lockout.RecordAttempt(ctx, u.ID, domain.OutcomeSuccess, req.Origin, map[string]any{
		"remember_me": req.RememberMe,
		"user_agent":  req.UserAgent,
	})
	if err != nil {
		return nil, u.ID, err
	}

	s.rehash(ctx, u, password)

	perms, err := s.Permissions.Resolve(ctx, u.RoleID)
	if err != nil {
		return nil, u.ID, err
	}

	sess, err := s.Tokens.IssuePair(ctx, u, perms, req.RememberMe)
	if err != nil {
		return nil, u.ID, err
	}
	return sess, u.ID, nil
}

// rehash upgrades a legacy hash to argon2id now that the plaintext is known.
// Failures are logged and never fail the login.
func (s *LoginService) rehash(ctx context.Context, u domain.User, password string) {
	if !cryptox.NeedsRehash(u.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash)
	}
	if err != nil {
		l.Warn("password rehash failed", slog.Int64("user_id", u.ID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded to argon2id", slog.Int64("user_id", u.ID))
}

// fail records a fallido row. If that failure tripped the lockout the
// caller sees the cooldown right away instead of a generic rejection.
func (s *LoginService) fail(ctx context.Context, userID int64, origin, reason string) error {
	if err := s.Lockout.RecordAttempt(ctx, userID, domain.OutcomeFailure, origin, map[string]any{"reason": reason}); err != nil {
		return err
	}

	status, err := s.Lockout.CheckLockout(ctx, userID)
	if err != nil {
		return err
	}
	if status.Locked {
		return &AccountLockedError{
			RemainingMinutes: status.RemainingMinutes,
			FailedCount:      status.FailedCount,
		}
	}
	return ErrInvalidCredentials
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metricsx.OutcomeSuccess
	case errors.Is(err, ErrInvalidCredentials):
		return metricsx.OutcomeInvalid
	case errors.Is(err, ErrAccountLocked):
		return metricsx.OutcomeLocked
	case errors.Is(err, ErrTwoFactorRequired):
		return metricsx.OutcomeTwoFactorRequired
	case errors.Is(err, cryptox.ErrTransportDecryption):
		return metricsx.OutcomeTransportError
	default:
		return metricsx.OutcomeError
	}
}
