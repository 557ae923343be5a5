package access

import (
	"context"

	"opserp/internal/core/id"
	"opserp/internal/core/security"
)

// Repository defines storage operations of the registry.
type Repository interface {
	// UpsertPermission inserts the key or updates its description.
	UpsertPermission(ctx context.Context, p *Permission) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	// MissingPermissions returns the subset of keys absent from the catalog.
	MissingPermissions(ctx context.Context, keys []security.PermissionKey) ([]security.PermissionKey, error)

	UpsertPage(ctx context.Context, p *Page) error
	ListPages(ctx context.Context) ([]Page, error)
	// MissingPages returns the subset of page keys absent from the catalog.
	MissingPages(ctx context.Context, keys []string) ([]string, error)

	// GetRoleByName loads a role with its pages and permissions.
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	// GetRoleByNameForUpdate is GetRoleByName holding the role row lock.
	GetRoleByNameForUpdate(ctx context.Context, name string) (*Role, error)
	GetRole(ctx context.Context, roleID id.ID) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	// ReplaceRoleGrants deletes the role's permission and page assignments
	// and inserts the given ones. Callers run it inside a transaction.
	ReplaceRoleGrants(ctx context.Context, roleID id.ID, perms []security.PermissionKey, pages []string) error
	// DeleteRole removes the role and detaches it from inactive actors.
	DeleteRole(ctx context.Context, roleID id.ID) error
	CountActiveActors(ctx context.Context, roleID id.ID) (int, error)

	GetActor(ctx context.Context, actorID id.ID) (*Actor, error)
	GetActorByEmail(ctx context.Context, email string) (*Actor, error)
	CreateActor(ctx context.Context, actor *Actor) error
	UpdateActor(ctx context.Context, actor *Actor) error
}
