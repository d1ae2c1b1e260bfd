package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/partyplanner/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Purpose scopes a token to one use so that, for example, an activation
// token cannot be presented as a session.
type Purpose string

const (
	PurposeAccess     Purpose = "access"
	PurposeRefresh    Purpose = "refresh"
	PurposeActivation Purpose = "activation"
)

// TokenConfig holds the signing secret and lifetimes.
type TokenConfig struct {
	Secret        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
}

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey []byte
	ttl       map[Purpose]time.Duration
	now       func() time.Time
}

// Claims represents the custom JWT claims for a user token.
type Claims struct {
	UserID  string  `json:"user_id"`
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenPair is an access token with the refresh token that renews it.
type TokenPair struct {
	Token        string
	RefreshToken string
}

// NewJWTManager creates a new JWT manager.
// cfg.Secret should be a strong random string (e.g., 32 bytes).
func NewJWTManager(cfg TokenConfig) *JWTManager {
	return &JWTManager{
		secretKey: []byte(cfg.Secret),
		ttl: map[Purpose]time.Duration{
			PurposeAccess:     cfg.AccessTTL,
			PurposeRefresh:    cfg.RefreshTTL,
			PurposeActivation: cfg.ActivationTTL,
		},
		now: time.Now,
	}
}

// Generate creates a signed token for user scoped to purpose.
func (m *JWTManager) Generate(user *models.User, purpose Purpose) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl[purpose])),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// GeneratePair issues an access and a refresh token for user.
func (m *JWTManager) GeneratePair(user *models.User) (*TokenPair, error) {
	access, err := m.Generate(user, PurposeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := m.Generate(user, PurposeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Token: access, RefreshToken: refresh}, nil
}

// Validate parses and validates a JWT token, returning the claims if valid
// and issued for purpose.
func (m *JWTManager) Validate(tokenString string, purpose Purpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong token purpose %q", ErrInvalidToken, claims.Purpose)
	}

	return claims, nil
}
