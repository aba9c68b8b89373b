package authUtils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateToken("u1")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestGenerateTokenClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL_HOURS", "")

	signed, err := GenerateToken("u1")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodHS256, token.Method)
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "u1", claims["user_id"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(defaultTokenTTL/time.Second), exp-iat)
}

func TestTokenTTLConfigurable(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "2")
	assert.Equal(t, 2*time.Hour, TokenTTL())

	t.Setenv("TOKEN_TTL_HOURS", "not-a-number")
	assert.Equal(t, defaultTokenTTL, TokenTTL())

	t.Setenv("TOKEN_TTL_HOURS", "-1")
	assert.Equal(t, defaultTokenTTL, TokenTTL())
}
