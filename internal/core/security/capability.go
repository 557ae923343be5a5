package security

import (
	"opserp/internal/core/apperror"
)

// Capability is the pre-resolved authority of one actor for one call.
// It is built once at the boundary from the actor and its role; domain
// services only ever check it and never look the role up again.
type Capability struct {
	ActorID     string
	RoleName    string
	Active      bool
	Permissions PermissionSet
	Pages       PageSet
}

// Can reports whether the capability grants key.
// An inactive capability grants nothing.
func Can(c *Capability, key PermissionKey) bool {
	if c == nil || !c.Active {
		return false
	}
	return c.Permissions.Has(key)
}

// PagesFor returns the navigation pages the capability may open.
// The result is empty for an inactive or missing capability.
func PagesFor(c *Capability) []string {
	if c == nil || !c.Active {
		return []string{}
	}
	return c.Pages.Sorted()
}

// Require fails closed with FORBIDDEN unless the capability grants key.
// The error never mentions the target entity.
func Require(c *Capability, key PermissionKey) error {
	if c == nil {
		return apperror.NewForbidden("missing capability")
	}
	if !c.Active {
		return apperror.NewForbidden("actor is inactive").
			WithDetail("permission", key.String())
	}
	if !c.Permissions.Has(key) {
		return apperror.NewForbidden("permission denied").
			WithDetail("permission", key.String())
	}
	return nil
}

// Grant is a test and seed helper building an active capability.
func Grant(actorID string, keys ...PermissionKey) *Capability {
	return &Capability{
		ActorID:     actorID,
		Active:      true,
		Permissions: NewPermissionSet(keys...),
		Pages:       NewPageSet(),
	}
}
