package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationPurpose namespaces codes so a signup code cannot reset a password.
type VerificationPurpose string

const (
	PurposeSignup        VerificationPurpose = "signup"
	PurposePasswordReset VerificationPurpose = "password-reset"
)

// consumeScript deletes the code only when it matches, so a wrong guess does
// not burn a valid code and a right one cannot be used twice.
var consumeScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if stored and stored == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// VerificationRepository stores short-lived email verification codes in Redis.
type VerificationRepository struct {
	rdb redis.UniversalClient
}

func NewVerificationRepository(rdb redis.UniversalClient) *VerificationRepository {
	return &VerificationRepository{rdb: rdb}
}

func codeKey(purpose VerificationPurpose, email string) string {
	return "verify:" + string(purpose) + ":" + strings.ToLower(email)
}

func verifiedKey(email string) string {
	return "verified:" + strings.ToLower(email)
}

// SaveCode stores code for email, replacing any previous one.
func (r *VerificationRepository) SaveCode(ctx context.Context, purpose VerificationPurpose, email, code string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, codeKey(purpose, email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// ConsumeCode reports whether code matches and, if so, deletes it.
func (r *VerificationRepository) ConsumeCode(ctx context.Context, purpose VerificationPurpose, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.rdb, []string{codeKey(purpose, email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check verification code: %w", err)
	}
	return n == 1, nil
}

func (r *VerificationRepository) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, verifiedKey(email), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

func (r *VerificationRepository) IsVerified(ctx context.Context, email string) (bool, error) {
	err := r.rdb.Get(ctx, verifiedKey(email)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read verification marker: %w", err)
	}
	return true, nil
}

func (r *VerificationRepository) ClearVerified(ctx context.Context, email string) error {
	if err := r.rdb.Del(ctx, verifiedKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to clear verification marker: %w", err)
	}
	return nil
}

func (r *VerificationRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
