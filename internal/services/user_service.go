package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/config"
	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gasspot/gasspot-backend/internal/mailer"
	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/gasspot/gasspot-backend/internal/repository"
	"github.com/google/uuid"
)

// verifiedTTL bounds how long a confirmed email may wait before signup.
const verifiedTTL = 30 * time.Minute

type UserService struct {
	users                    UserStore
	verifications            VerificationStore
	hasher                   auth.PasswordHasher
	mail                     mailer.Sender
	requireEmailVerification bool
	codeTTL                  time.Duration
	appName                  string
	newCode                  func() (string, error)
	logger                   *slog.Logger
}

func NewUserService(
	users UserStore,
	verifications VerificationStore,
	hasher auth.PasswordHasher,
	mail mailer.Sender,
	cfg *config.Config,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:                    users,
		verifications:            verifications,
		hasher:                   hasher,
		mail:                     mail,
		requireEmailVerification: cfg.RequireEmailVerification,
		codeTTL:                  cfg.VerificationCodeTTL,
		appName:                  cfg.MailFromName,
		newCode:                  generateCode,
		logger:                   logger,
	}
}

// generateCode returns a uniformly random six-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// unusablePassword is stored for social accounts that never set a password.
func unusablePassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *UserService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.requireEmailVerification {
		verified, err := s.verifications.IsVerified(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, ErrEmailNotVerified
		}
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	taken, err = s.users.ExistsByNickname(ctx, req.Nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNicknameTaken
	}

	plain := req.Password
	if plain == "" {
		if plain, err = unusablePassword(); err != nil {
			return nil, err
		}
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:              req.Email,
		Password:           hash,
		Nickname:           req.Nickname,
		ProfilePath:        req.ProfilePath,
		AgreeWithMarketing: req.AgreeWithMarketing,
		LoginMethod:        req.LoginMethod,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.uniqueConflict(ctx, user.Email, true, true)
		}
		return nil, err
	}

	if s.requireEmailVerification {
		if err := s.verifications.ClearVerified(ctx, req.Email); err != nil {
			s.logger.WarnContext(ctx, "failed to clear verification marker", "action", "user.signup", "user_id", user.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user signed up", "action", "user.signup", "user_id", user.ID, "social", user.IsSocial())
	return &dto.SignupResponse{ID: user.ID}, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// UpdateProfile applies the non-nil fields of req. Uniqueness is checked only
// for values that actually change.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}

	emailChanged := req.Email != nil && *req.Email != user.Email
	nicknameChanged := req.Nickname != nil && *req.Nickname != user.Nickname

	if emailChanged {
		if user.IsSocial() {
			return nil, ErrSocialUserUpdate
		}
		taken, err := s.users.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}

	if nicknameChanged {
		taken, err := s.users.ExistsByNickname(ctx, *req.Nickname)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrNicknameTaken
		}
		user.Nickname = *req.Nickname
	}

	if req.ProfilePath != nil {
		user.ProfilePath = req.ProfilePath
	}
	if req.AgreeWithMarketing != nil {
		user.AgreeWithMarketing = *req.AgreeWithMarketing
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.uniqueConflict(ctx, user.Email, emailChanged, nicknameChanged)
		}
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// uniqueConflict names the column behind a unique index violation that slipped
// past the existence checks, typically a concurrent write of the same value.
func (s *UserService) uniqueConflict(ctx context.Context, email string, emailChanged, nicknameChanged bool) error {
	switch {
	case emailChanged && !nicknameChanged:
		return ErrEmailTaken
	case nicknameChanged && !emailChanged:
		return ErrNicknameTaken
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err == nil && taken {
		return ErrEmailTaken
	}
	return ErrNicknameTaken
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, req *dto.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSocial() {
		return ErrSocialUserUpdate
	}
	if !s.hasher.Verify(req.CurrentPassword, user.Password) {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, user.ID, req.NewPassword, "user.change_password")
}

// SendSignupCode mails a code proving the caller owns email.
func (s *UserService) SendSignupCode(ctx context.Context, email string) error {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return s.sendCode(ctx, repository.PurposeSignup, email, mailer.SignupCode)
}

func (s *UserService) ConfirmSignupCode(ctx context.Context, email, code string) error {
	ok, err := s.verifications.ConsumeCode(ctx, repository.PurposeSignup, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVerificationCode
	}
	return s.verifications.MarkVerified(ctx, email, verifiedTTL)
}

func (s *UserService) SendPasswordResetCode(ctx context.Context, email string) error {
	if _, err := s.nativeUserByEmail(ctx, email); err != nil {
		return err
	}
	return s.sendCode(ctx, repository.PurposePasswordReset, email, mailer.PasswordResetCode)
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.nativeUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.verifications.ConsumeCode(ctx, repository.PurposePasswordReset, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVerificationCode
	}

	return s.setPassword(ctx, user.ID, newPassword, "user.reset_password")
}

// DeleteAccount removes the user and every refresh session. Native accounts
// must confirm their password.
func (s *UserService) DeleteAccount(ctx context.Context, id uuid.UUID, password string) error {
	user, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsSocial() && !s.hasher.Verify(password, user.Password) {
		return ErrInvalidCredentials
	}

	if err := s.users.DeleteWithTokens(ctx, user.ID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", "action", "user.delete", "user_id", user.ID)
	return nil
}

func (s *UserService) mustFind(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) nativeUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsSocial() {
		return nil, ErrSocialUserUpdate
	}
	return user, nil
}

func (s *UserService) setPassword(ctx context.Context, id uuid.UUID, plain, action string) error {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordByID(ctx, id, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password updated", "action", action, "user_id", id)
	return nil
}

type codeRenderer func(appName, code string, validMinutes int) (mailer.Rendered, error)

func (s *UserService) sendCode(ctx context.Context, purpose repository.VerificationPurpose, email string, render codeRenderer) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}
	msg, err := render(s.appName, code, int(s.codeTTL/time.Minute))
	if err != nil {
		return err
	}
	if err := s.verifications.SaveCode(ctx, purpose, email, code, s.codeTTL); err != nil {
		return err
	}
	if err := s.mail.Send(ctx, email, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("failed to send %s code: %w", purpose, err)
	}
	s.logger.InfoContext(ctx, "verification code sent", "action", "user.send_code", "purpose", purpose)
	return nil
}
