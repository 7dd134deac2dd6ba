package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// TokenService issues and verifies HS256 session tokens carrying the identity
// snapshot. Nothing is kept server side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. A zero ttl issues tokens without an
// exp claim, which stay valid until the secret rotates.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs claims. Without a ttl the output is deterministic for a given
// identity and secret.
func (s *TokenService) Issue(identity models.Identity) (string, error) {
	claims := &models.JwtCustomClaims{Identity: identity}
	if s.ttl > 0 {
		now := s.now()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return t, nil
}

// Verify returns the identity embedded in tokenString or ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (models.Identity, error) {
	if tokenString == "" {
		return models.Identity{}, ErrInvalidToken
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return models.Identity{}, newError(KindUnauthenticated, "Token expired", err)
		}
		return models.Identity{}, newError(KindUnauthenticated, ErrInvalidToken.Message, err)
	}
	if !token.Valid || claims.Identity.ID == 0 {
		return models.Identity{}, ErrInvalidToken
	}
	return claims.Identity, nil
}
