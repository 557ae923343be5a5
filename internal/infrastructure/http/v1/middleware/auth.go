package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"opserp/internal/core/apperror"
	appctx "opserp/internal/core/context"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
)

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// CapabilityResolver builds the capability of an actor.
type CapabilityResolver interface {
	ResolveCapability(ctx context.Context, actorID id.ID) (*security.Capability, error)
}

// Auth validates the bearer token, resolves the actor's capability and
// stores both in the request context. The capability is resolved on every
// request, so role edits and deactivation apply to tokens already issued.
// An inactive actor passes with an inactive capability and every check fails.
func Auth(validator TokenValidator, resolver CapabilityResolver) gin.HandlerFunc {
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

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		actorID, err := id.Parse(user.ActorID)
		if err != nil {
			abortUnauthorized(c, "invalid token subject")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		capability, err := resolver.ResolveCapability(ctx, actorID)
		if err != nil {
			if apperror.IsNotFound(err) {
				abortUnauthorized(c, "unknown actor")
				return
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		ctx = security.WithCapability(ctx, capability)
		c.Request = c.Request.WithContext(ctx)
		c.Set("actor_id", user.ActorID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
