package users

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/config"
	"github.com/m073med011/lms-api/pkg/types"
)

func testService(secret string, ttlHours int) *Service {
	return &Service{
		cfg: &config.AuthConfig{JWTSecret: secret, TokenTTLHours: ttlHours},
		log: zap.NewNop().Sugar(),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testService("test-secret", 24)
	user := &models.User{ID: "user-1", Role: types.UserRoleInstructor}

	raw, err := svc.IssueToken(user)
	require.NoError(t, err)

	claims, err := svc.ParseToken(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, string(types.UserRoleInstructor), claims.Role)
	require.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	raw, err := testService("secret-a", 24).IssueToken(&models.User{ID: "user-1", Role: types.UserRoleStudent})
	require.NoError(t, err)

	_, err = testService("secret-b", 24).ParseToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	_, err := testService("test-secret", 24).ParseToken("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	svc := testService("test-secret", 24)
	now := time.Now()
	claims := &Claims{
		Role: string(types.UserRoleStudent),
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			IssuedAt:  now.Add(-2 * time.Hour).Unix(),
			ExpiresAt: now.Add(-time.Hour).Unix(),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
