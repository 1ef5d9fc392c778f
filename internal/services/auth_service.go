package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/google/uuid"
)

// dummyPassword is hashed once so that logins for unknown emails pay for a
// bcrypt comparison too.
const dummyPassword = "gasspot-unknown-user-password"

type AuthService struct {
	users          UserStore
	tokens         RefreshTokenStore
	hasher         auth.PasswordHasher
	issuer         *auth.TokenIssuer
	strictPlatform bool
	dummyHash      string
	logger         *slog.Logger
}

func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	hasher auth.PasswordHasher,
	issuer *auth.TokenIssuer,
	strictPlatform bool,
	logger *slog.Logger,
) *AuthService {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		hasher:         hasher,
		issuer:         issuer,
		strictPlatform: strictPlatform,
		dummyHash:      dummy,
		logger:         logger,
	}
}

// Login verifies the credential and issues an access/refresh pair. The
// refresh token replaces whatever was stored for the same platform.
func (s *AuthService) Login(ctx context.Context, userAgent, email, password string) (*dto.LoginResponse, error) {
	platform := auth.DetectPlatform(userAgent)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		s.logger.InfoContext(ctx, "login rejected", "action", "auth.login", "platform", platform, "reason", "unknown_email")
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		s.logger.InfoContext(ctx, "login rejected", "action", "auth.login", "platform", platform, "user_id", user.ID, "reason", "bad_password")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.issuer.IssueAccessToken(user.ID, platform)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefreshToken(user.ID, platform)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Upsert(ctx, user.ID, platform.String(), refreshToken); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "action", "auth.login", "platform", platform, "user_id", user.ID)

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		ProfilePath:  user.ProfilePath,
		Nickname:     user.Nickname,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, userAgent, refreshToken string) (*dto.RefreshResponse, error) {
	record, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	claims, err := s.issuer.Verify(refreshToken)
	if err != nil || claims.Kind != auth.KindRefresh || claims.UserID != record.UserID {
		s.logger.InfoContext(ctx, "refresh rejected", "action", "auth.refresh", "user_id", record.UserID, "reason", "verify_failed")
		return nil, ErrExpiredRefreshToken
	}

	platform := auth.DetectPlatform(userAgent)
	if s.strictPlatform && platform.String() != record.Platform {
		s.logger.WarnContext(ctx, "refresh rejected", "action", "auth.refresh",
			"user_id", record.UserID, "platform", platform, "stored_platform", record.Platform, "reason", "platform_mismatch")
		return nil, ErrInvalidToken
	}

	accessToken, err := s.issuer.IssueAccessToken(record.UserID, platform)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{AccessToken: accessToken}, nil
}

// Logout clears the refresh token stored for the caller's platform. Calling
// it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userAgent string, userID uuid.UUID) error {
	platform := auth.DetectPlatform(userAgent)
	if err := s.tokens.Clear(ctx, userID, platform.String()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.InfoContext(ctx, "user logged out", "action", "auth.logout", "platform", platform, "user_id", userID)
	return nil
}
