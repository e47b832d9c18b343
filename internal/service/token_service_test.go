package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

const tokenTestSecret = "token-test-secret"

func TestTokenServiceValidateToken(t *testing.T) {
	service := NewTokenService(tokenTestSecret)
	token := mintAccessToken(t, tokenTestSecret, jwt.SigningMethodHS256, time.Hour)

	claims, err := service.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@school.test", claims.Email)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	service := NewTokenService(tokenTestSecret)
	token := mintAccessToken(t, "other-secret", jwt.SigningMethodHS256, time.Hour)

	_, err := service.ValidateToken(token)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	service := NewTokenService(tokenTestSecret)
	token := mintAccessToken(t, tokenTestSecret, jwt.SigningMethodHS256, -time.Minute)

	_, err := service.ValidateToken(token)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsUnexpectedSigningMethod(t *testing.T) {
	service := NewTokenService(tokenTestSecret)
	token := mintAccessToken(t, tokenTestSecret, jwt.SigningMethodHS512, time.Hour)

	_, err := service.ValidateToken(token)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	service := NewTokenService(tokenTestSecret)

	_, err := service.ValidateToken("not.a.jwt")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

func mintAccessToken(t *testing.T, secret string, method jwt.SigningMethod, ttl time.Duration) string {
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:   "user-1",
		Role:     models.RoleAdmin,
		Email:    "admin@school.test",
		FullName: "Admin User",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
