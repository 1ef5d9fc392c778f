package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, malformed input and expiry are not distinguished.
var ErrInvalidToken = errors.New("invalid token")

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is shared by access and refresh tokens.
type Claims struct {
	UserID   uuid.UUID `json:"userId"`
	Platform Platform  `json:"platform"`
	Kind     TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) IssueAccessToken(userID uuid.UUID, platform Platform) (string, error) {
	return i.issue(userID, platform, KindAccess, i.accessTTL)
}

func (i *TokenIssuer) IssueRefreshToken(userID uuid.UUID, platform Platform) (string, error) {
	return i.issue(userID, platform, KindRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(userID uuid.UUID, platform Platform, kind TokenKind, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:   userID,
		Platform: platform,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Secret exposes the signing key for middleware that verifies access tokens.
func (i *TokenIssuer) Secret() []byte {
	return i.secret
}
