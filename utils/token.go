// Package authUtils issues the signed tokens the auth endpoints hand out.
package authUtils

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrNoSecret signals a signing attempt without JWT_SECRET configured.
var ErrNoSecret = errors.New("JWT_SECRET is not configured")

// defaultTokenTTL applies when TOKEN_TTL_HOURS is unset or unparseable.
const defaultTokenTTL = 72 * time.Hour

// GenerateToken signs an HS256 token carrying the user id. Lifetime comes
// from TOKEN_TTL_HOURS; the cookie the login handler sets expires on its own
// schedule, this bounds the Bearer path.
func GenerateToken(userID string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(TokenTTL()).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// TokenTTL resolves the configured token lifetime.
func TokenTTL() time.Duration {
	if hours, err := strconv.Atoi(os.Getenv("TOKEN_TTL_HOURS")); err == nil && hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return defaultTokenTTL
}
