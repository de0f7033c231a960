package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"workdeck/internal/core/apperror"
	appctx "workdeck/internal/core/context"
)

// TokenValidator resolves a bearer token to the acting principal.
// Issuance lives upstream; only verification happens here.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.Actor, error)
}

// Actor middleware validates the bearer token and puts the acting
// principal on the request context. Mutating operations downstream
// attribute deletions to it.
func Actor(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("actor_id", actor.ID.String())
		c.Set("tenant_id", actor.TenantID.String())

		c.Next()
	}
}

// RequireElevated gates an endpoint on the admin or manager role.
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := appctx.GetActor(c.Request.Context())
		if actor == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !appctx.Elevated(actor.Role) {
			_ = c.Error(
				apperror.NewForbidden("elevated role required").
					WithDetail("role", actor.Role),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
