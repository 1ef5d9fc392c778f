package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/config"
	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/gasspot/gasspot-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*models.User
	err   error
	saved int
	// beforeWrite runs ahead of Create and Save; a non-nil error aborts the write.
	beforeWrite func() error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := m.FindByEmail(ctx, email)
	return u != nil, err
}

func (m *memUsers) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	if m.beforeWrite != nil {
		if err := m.beforeWrite(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) Save(_ context.Context, user *models.User) error {
	if m.beforeWrite != nil {
		if err := m.beforeWrite(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.byID[user.ID] = &cp
	m.saved++
	return nil
}

func (m *memUsers) UpdatePasswordByID(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.Password = hash
	}
	return nil
}

func (m *memUsers) DeleteWithTokens(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type sessionKey struct {
	userID   uuid.UUID
	platform string
}

// memTokens mirrors the SQL store: one hash per (user, platform), nil after logout.
type memTokens struct {
	mu   sync.Mutex
	rows map[sessionKey]*string
}

func newMemTokens() *memTokens {
	return &memTokens{rows: map[sessionKey]*string{}}
}

func (m *memTokens) Upsert(_ context.Context, userID uuid.UUID, platform, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := repository.HashToken(token)
	m.rows[sessionKey{userID, platform}] = &h
	return nil
}

func (m *memTokens) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	h := repository.HashToken(token)
	for k, v := range m.rows {
		if v != nil && *v == h {
			hash := *v
			return &models.RefreshToken{UserID: k.userID, Platform: k.platform, TokenHash: &hash}, nil
		}
	}
	return nil, nil
}

func (m *memTokens) Clear(_ context.Context, userID uuid.UUID, platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[sessionKey{userID, platform}]; ok {
		m.rows[sessionKey{userID, platform}] = nil
	}
	return nil
}

func (m *memTokens) live(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, v := range m.rows {
		if k.userID == userID && v != nil {
			n++
		}
	}
	return n
}

type codeEntry struct {
	purpose repository.VerificationPurpose
	email   string
}

type memVerifications struct {
	mu       sync.Mutex
	codes    map[codeEntry]string
	verified map[string]bool
}

func newMemVerifications() *memVerifications {
	return &memVerifications{codes: map[codeEntry]string{}, verified: map[string]bool{}}
}

func (m *memVerifications) SaveCode(_ context.Context, purpose repository.VerificationPurpose, email, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[codeEntry{purpose, strings.ToLower(email)}] = code
	return nil
}

func (m *memVerifications) ConsumeCode(_ context.Context, purpose repository.VerificationPurpose, email, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := codeEntry{purpose, strings.ToLower(email)}
	if stored, ok := m.codes[key]; ok && stored == code {
		delete(m.codes, key)
		return true, nil
	}
	return false, nil
}

func (m *memVerifications) MarkVerified(_ context.Context, email string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified[strings.ToLower(email)] = true
	return nil
}

func (m *memVerifications) IsVerified(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verified[strings.ToLower(email)], nil
}

func (m *memVerifications) ClearVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.verified, strings.ToLower(email))
	return nil
}

type sentMail struct {
	to, subject, body string
}

type memMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *memMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTAccessExpiry:     2 * time.Hour,
		JWTRefreshExpiry:    14 * 24 * time.Hour,
		VerificationCodeTTL: 10 * time.Minute,
		MailFromName:        "GasSpot",
	}
}

// seedUser stores a native user with the given password and returns it.
func seedUser(t *testing.T, users *memUsers, email, nickname, password string) *models.User {
	t.Helper()
	hash, err := testHasher().Hash(password)
	require.NoError(t, err)
	u := &models.User{Email: email, Nickname: nickname, Password: hash}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}
