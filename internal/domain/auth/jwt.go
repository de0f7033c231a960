// Package auth verifies bearer tokens and resolves them to acting
// principals. Token issuance lives upstream; this service only parses
// and validates.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/id"
)

// JWTConfig holds JWT verification configuration.
type JWTConfig struct {
	Secret string
	Issuer string
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret: secret,
		Issuer: "workdeck",
	}
}

// Claims represents the JWT claims an upstream issuer puts on tokens.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalID string `json:"uid"`
	TenantID    string `json:"tid"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// JWTService verifies tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// ValidateToken validates a token and returns the acting principal.
// Expiry and signature checks come from the jwt library; the ID claims
// must additionally parse as UUIDs before they reach storage.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}

	principalID, err := id.Parse(claims.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("invalid uid claim: %w", err)
	}
	tenantID, err := id.Parse(claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tid claim: %w", err)
	}

	switch claims.Role {
	case appctx.RoleAdmin, appctx.RoleManager, appctx.RoleMember:
	default:
		return nil, fmt.Errorf("invalid role claim %q", claims.Role)
	}

	return &appctx.Actor{
		ID:       principalID,
		TenantID: tenantID,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}
