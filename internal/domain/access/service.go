package access

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/core/tx"
	"opserp/pkg/logger"
)

// Registry is the single source of permission keys, pages and roles.
// References to keys or pages that are not in the catalog fail with NOT_FOUND.
type Registry struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewRegistry creates a registry service.
func NewRegistry(repo Repository, txManager tx.Manager) *Registry {
	return &Registry{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// DefinePermission adds a key to the catalog, or updates its description.
func (r *Registry) DefinePermission(ctx context.Context, c *security.Capability, module, action, description string) (*Permission, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.definePermission(ctx, module, action, description)
}

func (r *Registry) definePermission(ctx context.Context, module, action, description string) (*Permission, error) {
	key := security.Key(module, action)
	if key.Module == "" || key.Action == "" {
		return nil, apperror.NewInvalidRequest("module and action are required")
	}
	p := &Permission{
		Module:      key.Module,
		Action:      key.Action,
		Description: description,
		CreatedAt:   r.now(),
	}
	if err := r.repo.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert permission: %w", err)
	}
	logger.Info(ctx, "permission defined", "permission", key.String())
	return p, nil
}

// DefinePage adds a navigation page to the catalog.
func (r *Registry) DefinePage(ctx context.Context, c *security.Capability, key, title string) (*Page, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.definePage(ctx, key, title)
}

func (r *Registry) definePage(ctx context.Context, key, title string) (*Page, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperror.NewInvalidRequest("page key is required")
	}
	p := &Page{Key: key, Title: title}
	if err := r.repo.UpsertPage(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert page: %w", err)
	}
	return p, nil
}

// DefineRole creates or replaces a role by its normalized name.
// The permission and page sets are replaced as a whole in one transaction.
func (r *Registry) DefineRole(ctx context.Context, c *security.Capability, spec RoleSpec) (*Role, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.defineRole(ctx, spec)
}

func (r *Registry) defineRole(ctx context.Context, spec RoleSpec) (*Role, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	name := NormalizeRoleName(spec.Name)
	perms := security.NewPermissionSet(spec.Permissions...).Keys()
	pages := security.NewPageSet(spec.AllowedPages...).Sorted()

	var role *Role
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if missing, err := r.repo.MissingPermissions(ctx, perms); err != nil {
			return fmt.Errorf("check permissions: %w", err)
		} else if len(missing) > 0 {
			return apperror.NewNotFound("permission", missing[0].String())
		}
		if missing, err := r.repo.MissingPages(ctx, pages); err != nil {
			return fmt.Errorf("check pages: %w", err)
		} else if len(missing) > 0 {
			return apperror.NewNotFound("page", missing[0])
		}

		now := r.now()
		existing, err := r.repo.GetRoleByNameForUpdate(ctx, name)
		switch {
		case apperror.IsNotFound(err):
			role = &Role{
				ID:          id.New(),
				Name:        name,
				Description: spec.Description,
				Active:      spec.Active,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := r.repo.CreateRole(ctx, role); err != nil {
				return fmt.Errorf("create role: %w", err)
			}
		case err != nil:
			return err
		default:
			role = existing
			role.Description = spec.Description
			role.Active = spec.Active
			role.UpdatedAt = now
			if err := r.repo.UpdateRole(ctx, role); err != nil {
				return fmt.Errorf("update role: %w", err)
			}
		}

		if err := r.repo.ReplaceRoleGrants(ctx, role.ID, perms, pages); err != nil {
			return fmt.Errorf("replace role grants: %w", err)
		}
		role.Permissions = perms
		role.AllowedPages = pages
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "role defined",
		"role", role.Name,
		"permissions", len(role.Permissions),
		"pages", len(role.AllowedPages),
		"active", role.Active,
	)
	return role, nil
}

// DeleteRole removes a role that no active actor uses.
// A role in use can only be deactivated through DefineRole.
func (r *Registry) DeleteRole(ctx context.Context, c *security.Capability, name string) error {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return err
	}
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		role, err := r.repo.GetRoleByNameForUpdate(ctx, NormalizeRoleName(name))
		if err != nil {
			return err
		}
		n, err := r.repo.CountActiveActors(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("count actors: %w", err)
		}
		if n > 0 {
			return apperror.NewConflict("role is assigned to active actors; deactivate it instead").
				WithDetail("role", role.Name).
				WithDetail("activeActors", n)
		}
		if err := r.repo.DeleteRole(ctx, role.ID); err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		logger.Info(ctx, "role deleted", "role", role.Name)
		return nil
	})
}

// UpsertActor creates or updates an actor identified by email.
func (r *Registry) UpsertActor(ctx context.Context, c *security.Capability, spec ActorSpec) (*Actor, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.upsertActor(ctx, spec)
}

func (r *Registry) upsertActor(ctx context.Context, spec ActorSpec) (*Actor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(spec.Email))

	var actor *Actor
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock the role so a concurrent DeleteRole cannot remove it under us.
		role, err := r.repo.GetRoleByNameForUpdate(ctx, NormalizeRoleName(spec.RoleName))
		if err != nil {
			return err
		}

		now := r.now()
		existing, err := r.repo.GetActorByEmail(ctx, email)
		switch {
		case apperror.IsNotFound(err):
			actor = &Actor{
				ID:        id.New(),
				Email:     email,
				Name:      spec.Name,
				Active:    spec.Active,
				RoleID:    role.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return r.repo.CreateActor(ctx, actor)
		case err != nil:
			return err
		default:
			actor = existing
			actor.Name = spec.Name
			actor.Active = spec.Active
			actor.RoleID = role.ID
			actor.UpdatedAt = now
			return r.repo.UpdateActor(ctx, actor)
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "actor upserted", "actor_id", actor.ID, "active", actor.Active)
	return actor, nil
}

// ResolveCapability builds the capability of an actor from its current role.
// Inactive actors and actors of inactive roles resolve to an inactive
// capability rather than an error, so read-only checks still work.
func (r *Registry) ResolveCapability(ctx context.Context, actorID id.ID) (*security.Capability, error) {
	actor, err := r.repo.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if id.IsNil(actor.RoleID) {
		// The role was deleted while the actor was inactive.
		return &security.Capability{
			ActorID:     actor.ID.String(),
			Permissions: security.NewPermissionSet(),
			Pages:       security.NewPageSet(),
		}, nil
	}
	role, err := r.repo.GetRole(ctx, actor.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load role of actor %s: %w", actorID, err)
	}
	return &security.Capability{
		ActorID:     actor.ID.String(),
		RoleName:    role.Name,
		Active:      actor.Active && role.Active,
		Permissions: security.NewPermissionSet(role.Permissions...),
		Pages:       security.NewPageSet(role.AllowedPages...),
	}, nil
}

// GetRole returns a role by name.
func (r *Registry) GetRole(ctx context.Context, c *security.Capability, name string) (*Role, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.repo.GetRoleByName(ctx, NormalizeRoleName(name))
}

// ListRoles returns all roles ordered by name.
func (r *Registry) ListRoles(ctx context.Context, c *security.Capability) ([]Role, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	roles, err := r.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// ListPermissions returns the permission catalog.
func (r *Registry) ListPermissions(ctx context.Context, c *security.Capability) ([]Permission, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.repo.ListPermissions(ctx)
}

// ListPages returns the page catalog.
func (r *Registry) ListPages(ctx context.Context, c *security.Capability) ([]Page, error) {
	if err := security.Require(c, security.PermRolesManage); err != nil {
		return nil, err
	}
	return r.repo.ListPages(ctx)
}

// Seed loads a bootstrap catalog in one transaction.
// It runs without a capability and is only reachable from cmd/seed.
func (r *Registry) Seed(ctx context.Context, catalog Catalog) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, p := range catalog.Permissions {
			if _, err := r.definePermission(ctx, p.Module, p.Action, p.Description); err != nil {
				return err
			}
		}
		for _, p := range catalog.Pages {
			if _, err := r.definePage(ctx, p.Key, p.Title); err != nil {
				return err
			}
		}
		for _, spec := range catalog.Roles {
			if _, err := r.defineRole(ctx, spec); err != nil {
				return fmt.Errorf("role %s: %w", spec.Name, err)
			}
		}
		for _, spec := range catalog.Actors {
			if _, err := r.upsertActor(ctx, spec); err != nil {
				return fmt.Errorf("actor %s: %w", spec.Email, err)
			}
		}
		return nil
	})
}
