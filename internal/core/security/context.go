package security

import "context"

type capabilityKey struct{}

// WithCapability attaches a resolved capability to the request context.
// Used by the HTTP middleware after resolving the actor from the token.
func WithCapability(ctx context.Context, c *Capability) context.Context {
	return context.WithValue(ctx, capabilityKey{}, c)
}

// CapabilityFrom returns the capability carried by ctx, or nil.
// Callers treat nil as "no permissions": Require fails closed on it.
func CapabilityFrom(ctx context.Context) *Capability {
	if c, ok := ctx.Value(capabilityKey{}).(*Capability); ok {
		return c
	}
	return nil
}
