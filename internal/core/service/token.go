package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

const (
	// DefaultTokenWindow is the token lifetime when the caller asks for none.
	DefaultTokenWindow = time.Hour
	// MaxTokenWindow caps caller-supplied lifetimes.
	MaxTokenWindow = 30 * 24 * time.Hour
)

// tokenClaims keeps the subject under "data.id" so tokens minted by earlier
// deployments of the API keep verifying.
type tokenClaims struct {
	Data tokenSubject `json:"data"`
	jwt.RegisteredClaims
}

type tokenSubject struct {
	ID string `json:"id"`
}

// TokenManager signs and verifies HS256 tokens carrying a user identifier.
// The secret is fixed at construction; rotating it invalidates every token
// issued before.
type TokenManager struct {
	secret        []byte
	defaultWindow time.Duration
	maxWindow     time.Duration
	now           func() time.Time
}

// NewTokenManager returns a TokenManager. Non-positive windows fall back to
// DefaultTokenWindow and MaxTokenWindow.
func NewTokenManager(secret string, defaultWindow, maxWindow time.Duration) *TokenManager {
	if defaultWindow <= 0 {
		defaultWindow = DefaultTokenWindow
	}
	if maxWindow <= 0 {
		maxWindow = MaxTokenWindow
	}
	if defaultWindow > maxWindow {
		defaultWindow = maxWindow
	}
	return &TokenManager{
		secret:        []byte(secret),
		defaultWindow: defaultWindow,
		maxWindow:     maxWindow,
		now:           time.Now,
	}
}

// Issue signs a token for userID expiring after the window encoded in raw
// (seconds). raw comes from a request header, so anything that is not a
// positive integer falls back to the default window and oversized values are
// clamped to the maximum.
func (m *TokenManager) Issue(userID, raw string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidToken)
	}

	now := m.now()
	claims := tokenClaims{
		Data: tokenSubject{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.Window(raw))),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the embedded
// user identifier. Verification failures are reported as *domain.TokenError;
// a valid token without a subject yields domain.ErrInvalidToken.
func (m *TokenManager) Verify(token string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", &domain.TokenError{Category: tokenErrorCategory(err), Err: err}
	}

	if claims.Data.ID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Data.ID, nil
}

// Window parses a caller-supplied expiry window in seconds.
func (m *TokenManager) Window(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m.defaultWindow
	}

	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return m.defaultWindow
	}
	if secs > int64(m.maxWindow/time.Second) {
		return m.maxWindow
	}
	return time.Duration(secs) * time.Second
}

func tokenErrorCategory(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.TokenNotBefore
	default:
		return domain.TokenMalformed
	}
}
