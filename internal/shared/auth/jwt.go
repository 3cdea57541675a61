// Package auth signs and verifies the HS256 bearer tokens that identify
// résumé owners.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity contained in a JWT. Subject is the owner id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const devSecret = "dev-secret"

// SecretFor returns the signing secret for env. Production requires an
// explicit secret; other environments fall back to a fixed dev secret.
func SecretFor(env, secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	env = strings.ToLower(strings.TrimSpace(env))
	if secret == "" && (env == "production" || env == "prod") {
		return nil, fmt.Errorf("%w: JWT_SECRET required in production", ErrMissingSecret)
	}
	if secret == "" {
		secret = devSecret
	}
	return []byte(secret), nil
}

// SignJWT signs a token for subject valid for ttl.
func SignJWT(secret []byte, subject, email string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("sub is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyJWT verifies token and returns its claims. Any failure wraps
// ErrInvalidToken.
func VerifyJWT(secret []byte, token string) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrMissingSecret
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
