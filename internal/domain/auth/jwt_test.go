package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/id"
)

func signToken(t *testing.T, secret string, mutate func(*Claims)) string {
	t.Helper()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "workdeck",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
		PrincipalID: id.New().String(),
		TenantID:    id.New().String(),
		Email:       "op@acme.test",
		Role:        appctx.RoleManager,
	}
	if mutate != nil {
		mutate(&claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token := signToken(t, "test-secret", nil)
	actor, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op@acme.test", actor.Email)
	assert.Equal(t, appctx.RoleManager, actor.Role)
	assert.False(t, actor.System)
}

func TestValidateTokenRejections(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "other-secret", nil)},
		{"expired", signToken(t, "test-secret", func(c *Claims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		})},
		{"wrong issuer", signToken(t, "test-secret", func(c *Claims) {
			c.Issuer = "someone-else"
		})},
		{"garbage uid", signToken(t, "test-secret", func(c *Claims) {
			c.PrincipalID = "not-a-uuid"
		})},
		{"unknown role", signToken(t, "test-secret", func(c *Claims) {
			c.Role = "superuser"
		})},
		{"not a token", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}
