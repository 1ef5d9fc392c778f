package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicate is returned by writes that violate a unique index. It needs a
// connection opened with TranslateError.
var ErrDuplicate = errors.New("unique constraint violated")

// UserRepository is the credential store. Lookups return nil, nil when no
// row matches.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, "nickname = ?", nickname)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// Save writes all profile columns of an existing user.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).Select(
		"email", "nickname", "profile_path", "agree_with_marketing", "updated_at",
	).Updates(user).Error
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) UpdatePasswordByID(ctx context.Context, id uuid.UUID, hash string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteWithTokens removes the user and every refresh-token row it owns.
func (r *UserRepository) DeleteWithTokens(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(ForUser(id)).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
