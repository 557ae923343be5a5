// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated caller as carried by the access token.
// It only identifies the actor; permissions are resolved from the registry
// on every request so that role edits and deactivation apply immediately.
type UserContext struct {
	ActorID   string
	Email     string
	SessionID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or empty string.
func GetActorID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.ActorID
	}
	return ""
}
