package services

import (
	"context"
	"time"

	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/gasspot/gasspot-backend/internal/repository"
	"github.com/google/uuid"
)

// UserStore is the credential store. Lookups return nil, nil on absence.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	UpdatePasswordByID(ctx context.Context, id uuid.UUID, hash string) error
	DeleteWithTokens(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStore keeps one refresh token per (user, platform).
type RefreshTokenStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, platform, token string) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Clear(ctx context.Context, userID uuid.UUID, platform string) error
}

// VerificationStore keeps short-lived email codes.
type VerificationStore interface {
	SaveCode(ctx context.Context, purpose repository.VerificationPurpose, email, code string, ttl time.Duration) error
	ConsumeCode(ctx context.Context, purpose repository.VerificationPurpose, email, code string) (bool, error)
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
	ClearVerified(ctx context.Context, email string) error
}

var (
	_ UserStore         = (*repository.UserRepository)(nil)
	_ RefreshTokenStore = (*repository.RefreshTokenRepository)(nil)
	_ VerificationStore = (*repository.VerificationRepository)(nil)
)
