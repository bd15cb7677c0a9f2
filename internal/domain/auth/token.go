package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"melodix-server-go/internal/domain/auth/model"
)

// TokenKind discriminates the two claim bundles the service signs.
type TokenKind string

const (
	TokenKindAccess TokenKind = "access"
	TokenKindReset  TokenKind = "reset"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenKindMismatch = errors.New("token kind mismatch")
)

// Claims is the signed payload of every issued token. Immutable once signed.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens. The secret and
// algorithm are fixed at construction; rotating the secret invalidates all
// outstanding tokens.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

// NewTokenService builds a token service using the provided secret.
func NewTokenService(secret string, accessTTL, resetTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
	}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

// ResetTTL reports the configured reset-token lifetime.
func (ts *TokenService) ResetTTL() time.Duration { return ts.resetTTL }

// Issue signs a claim bundle of the given kind. A zero ttl falls back to the
// configured default for that kind.
func (ts *TokenService) Issue(view model.UserView, kind TokenKind, ttl time.Duration) (string, error) {
	if ttl == 0 {
		switch kind {
		case TokenKindReset:
			ttl = ts.resetTTL
		default:
			ttl = ts.accessTTL
		}
	}

	now := time.Now()
	claims := Claims{
		UserID:   view.ID,
		Email:    view.Email,
		Username: view.Username,
		Role:     view.Role,
		Type:     string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique per token so two logins in the same second never share
			// a token string; revocation is keyed on the full token.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, additionally requiring its kind to
// match. Failures map onto the expired/malformed/kind-mismatch sentinels.
func (ts *TokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Type != string(kind) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTokenKindMismatch, kind, claims.Type)
	}
	return claims, nil
}
