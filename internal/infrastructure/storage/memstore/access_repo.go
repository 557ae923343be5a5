package memstore

import (
	"context"
	"sort"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
)

// AccessRepo implements access.Repository.
type AccessRepo struct{ s *Store }

var _ access.Repository = (*AccessRepo)(nil)

func (r *AccessRepo) UpsertPermission(ctx context.Context, p *access.Permission) error {
	return r.s.do(ctx, func(st *state) error {
		if existing, ok := st.permissions[p.Key()]; ok {
			p.CreatedAt = existing.CreatedAt
		}
		st.permissions[p.Key()] = *p
		return nil
	})
}

func (r *AccessRepo) ListPermissions(ctx context.Context) ([]access.Permission, error) {
	var out []access.Permission
	err := r.s.do(ctx, func(st *state) error {
		for _, p := range st.permissions {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out, err
}

func (r *AccessRepo) MissingPermissions(ctx context.Context, keys []security.PermissionKey) ([]security.PermissionKey, error) {
	var missing []security.PermissionKey
	err := r.s.do(ctx, func(st *state) error {
		for _, k := range keys {
			if _, ok := st.permissions[k]; !ok {
				missing = append(missing, k)
			}
		}
		return nil
	})
	return missing, err
}

func (r *AccessRepo) UpsertPage(ctx context.Context, p *access.Page) error {
	return r.s.do(ctx, func(st *state) error {
		st.pages[p.Key] = *p
		return nil
	})
}

func (r *AccessRepo) ListPages(ctx context.Context) ([]access.Page, error) {
	var out []access.Page
	err := r.s.do(ctx, func(st *state) error {
		for _, p := range st.pages {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

func (r *AccessRepo) MissingPages(ctx context.Context, keys []string) ([]string, error) {
	var missing []string
	err := r.s.do(ctx, func(st *state) error {
		for _, k := range keys {
			if _, ok := st.pages[k]; !ok {
				missing = append(missing, k)
			}
		}
		return nil
	})
	return missing, err
}

func loadRole(st *state, role access.Role) *access.Role {
	role.Permissions = append([]security.PermissionKey{}, st.rolePerms[role.ID]...)
	role.AllowedPages = append([]string{}, st.rolePages[role.ID]...)
	return &role
}

func (r *AccessRepo) GetRoleByName(ctx context.Context, name string) (*access.Role, error) {
	var out *access.Role
	err := r.s.do(ctx, func(st *state) error {
		for _, role := range st.roles {
			if role.Name == name {
				out = loadRole(st, role)
				return nil
			}
		}
		return apperror.NewNotFound("role", name)
	})
	return out, err
}

func (r *AccessRepo) GetRoleByNameForUpdate(ctx context.Context, name string) (*access.Role, error) {
	return r.GetRoleByName(ctx, name)
}

func (r *AccessRepo) GetRole(ctx context.Context, roleID id.ID) (*access.Role, error) {
	var out *access.Role
	err := r.s.do(ctx, func(st *state) error {
		role, ok := st.roles[roleID]
		if !ok {
			return apperror.NewNotFound("role", roleID)
		}
		out = loadRole(st, role)
		return nil
	})
	return out, err
}

func (r *AccessRepo) ListRoles(ctx context.Context) ([]access.Role, error) {
	var out []access.Role
	err := r.s.do(ctx, func(st *state) error {
		for _, role := range st.roles {
			out = append(out, *loadRole(st, role))
		}
		return nil
	})
	return out, err
}

func (r *AccessRepo) CreateRole(ctx context.Context, role *access.Role) error {
	return r.s.do(ctx, func(st *state) error {
		for _, existing := range st.roles {
			if existing.Name == role.Name {
				return apperror.NewDuplicate("role", "name", role.Name)
			}
		}
		v := *role
		v.Permissions, v.AllowedPages = nil, nil
		st.roles[role.ID] = v
		return nil
	})
}

func (r *AccessRepo) UpdateRole(ctx context.Context, role *access.Role) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.roles[role.ID]; !ok {
			return apperror.NewNotFound("role", role.ID)
		}
		v := *role
		v.Permissions, v.AllowedPages = nil, nil
		st.roles[role.ID] = v
		return nil
	})
}

func (r *AccessRepo) ReplaceRoleGrants(ctx context.Context, roleID id.ID, perms []security.PermissionKey, pages []string) error {
	return r.s.do(ctx, func(st *state) error {
		delete(st.rolePerms, roleID)
		delete(st.rolePages, roleID)
		for _, k := range perms {
			if _, ok := st.permissions[k]; !ok {
				return apperror.NewNotFound("permission", k.String())
			}
			st.rolePerms[roleID] = append(st.rolePerms[roleID], k)
		}
		for _, p := range pages {
			if _, ok := st.pages[p]; !ok {
				return apperror.NewNotFound("page", p)
			}
			st.rolePages[roleID] = append(st.rolePages[roleID], p)
		}
		return nil
	})
}

func (r *AccessRepo) DeleteRole(ctx context.Context, roleID id.ID) error {
	return r.s.do(ctx, func(st *state) error {
		for k, a := range st.actors {
			if a.RoleID == roleID {
				a.RoleID = id.Nil()
				st.actors[k] = a
			}
		}
		delete(st.roles, roleID)
		delete(st.rolePerms, roleID)
		delete(st.rolePages, roleID)
		return nil
	})
}

func (r *AccessRepo) CountActiveActors(ctx context.Context, roleID id.ID) (int, error) {
	var n int
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.actors {
			if a.RoleID == roleID && a.Active {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *AccessRepo) GetActor(ctx context.Context, actorID id.ID) (*access.Actor, error) {
	var out *access.Actor
	err := r.s.do(ctx, func(st *state) error {
		a, ok := st.actors[actorID]
		if !ok {
			return apperror.NewNotFound("actor", actorID)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AccessRepo) GetActorByEmail(ctx context.Context, email string) (*access.Actor, error) {
	var out *access.Actor
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.actors {
			if a.Email == email {
				out = &a
				return nil
			}
		}
		return apperror.NewNotFound("actor", email)
	})
	return out, err
}

func (r *AccessRepo) CreateActor(ctx context.Context, actor *access.Actor) error {
	return r.s.do(ctx, func(st *state) error {
		for _, a := range st.actors {
			if a.Email == actor.Email {
				return apperror.NewDuplicate("actor", "email", actor.Email)
			}
		}
		st.actors[actor.ID] = *actor
		return nil
	})
}

func (r *AccessRepo) UpdateActor(ctx context.Context, actor *access.Actor) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.actors[actor.ID]; !ok {
			return apperror.NewNotFound("actor", actor.ID)
		}
		st.actors[actor.ID] = *actor
		return nil
	})
}
