package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshTokenRepository keeps at most one live refresh token per
// (user, platform). Raw tokens are never stored, only their SHA-256.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Upsert replaces whatever token is stored for (userID, platform).
func (r *RefreshTokenRepository) Upsert(ctx context.Context, userID uuid.UUID, platform, token string) error {
	hash := HashToken(token)
	record := models.RefreshToken{
		UserID:    userID,
		Platform:  platform,
		TokenHash: &hash,
	}

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// FindByToken returns the record holding token, or nil, nil.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, nil
	}

	var record models.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &record, nil
}

// Clear nulls the token of (userID, platform). Missing rows are not an error.
func (r *RefreshTokenRepository) Clear(ctx context.Context, userID uuid.UUID, platform string) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Scopes(ForSession(userID, platform)).
		Updates(map[string]interface{}{
			"token_hash": nil,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
