package access_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
	"opserp/internal/infrastructure/storage/postgres"
)

var roleColumns = postgres.Columns(access.Role{})

type roleGrant struct {
	RoleID id.ID  `db:"role_id"`
	Module string `db:"module"`
	Action string `db:"action"`
}

type rolePage struct {
	RoleID  id.ID  `db:"role_id"`
	PageKey string `db:"page_key"`
}

// loadGrants fills permissions and pages of the given roles.
func (r *Repo) loadGrants(ctx context.Context, roles []*access.Role) error {
	if len(roles) == 0 {
		return nil
	}

	ids := make([]id.ID, len(roles))
	byID := make(map[id.ID]*access.Role, len(roles))
	for i, role := range roles {
		ids[i] = role.ID
		byID[role.ID] = role
		role.Permissions = []security.PermissionKey{}
		role.AllowedPages = []string{}
	}

	var grants []roleGrant
	q := r.builder().Select("role_id", "module", "action").
		From("role_permissions").
		Where(squirrel.Eq{"role_id": ids}).
		OrderBy("module", "action")
	if err := r.list(ctx, &grants, q, "role permissions"); err != nil {
		return err
	}
	for _, g := range grants {
		role := byID[g.RoleID]
		role.Permissions = append(role.Permissions, security.PermissionKey{Module: g.Module, Action: g.Action})
	}

	var pages []rolePage
	q = r.builder().Select("role_id", "page_key").
		From("role_pages").
		Where(squirrel.Eq{"role_id": ids}).
		OrderBy("page_key")
	if err := r.list(ctx, &pages, q, "role pages"); err != nil {
		return err
	}
	for _, p := range pages {
		role := byID[p.RoleID]
		role.AllowedPages = append(role.AllowedPages, p.PageKey)
	}
	return nil
}

func (r *Repo) getRole(ctx context.Context, where squirrel.Sqlizer, key any, lock bool) (*access.Role, error) {
	q := r.builder().Select(roleColumns...).From("roles").Where(where)
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	var role access.Role
	if err := r.get(ctx, &role, q, "role", key); err != nil {
		return nil, err
	}
	if err := r.loadGrants(ctx, []*access.Role{&role}); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repo) GetRoleByName(ctx context.Context, name string) (*access.Role, error) {
	return r.getRole(ctx, squirrel.Eq{"name": name}, name, false)
}

func (r *Repo) GetRoleByNameForUpdate(ctx context.Context, name string) (*access.Role, error) {
	return r.getRole(ctx, squirrel.Eq{"name": name}, name, true)
}

func (r *Repo) GetRole(ctx context.Context, roleID id.ID) (*access.Role, error) {
	return r.getRole(ctx, squirrel.Eq{"id": roleID}, roleID, false)
}

func (r *Repo) ListRoles(ctx context.Context) ([]access.Role, error) {
	var roles []access.Role
	q := r.builder().Select(roleColumns...).From("roles").OrderBy("name")
	if err := r.list(ctx, &roles, q, "roles"); err != nil {
		return nil, err
	}

	ptrs := make([]*access.Role, len(roles))
	for i := range roles {
		ptrs[i] = &roles[i]
	}
	if err := r.loadGrants(ctx, ptrs); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *Repo) CreateRole(ctx context.Context, role *access.Role) error {
	_, err := r.exec(ctx, r.builder().Insert("roles").SetMap(postgres.StructToMap(role)), "insert role")
	return err
}

func (r *Repo) UpdateRole(ctx context.Context, role *access.Role) error {
	data := postgres.StructToMap(role, "id", "created_at")
	n, err := r.exec(ctx, r.builder().Update("roles").SetMap(data).Where(squirrel.Eq{"id": role.ID}), "update role")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("role", role.ID)
	}
	return nil
}

// ReplaceRoleGrants rewrites the role's grants with COPY. Requires a transaction.
func (r *Repo) ReplaceRoleGrants(ctx context.Context, roleID id.ID, perms []security.PermissionKey, pages []string) error {
	if _, err := r.exec(ctx, r.builder().Delete("role_permissions").Where(squirrel.Eq{"role_id": roleID}), "clear role permissions"); err != nil {
		return err
	}
	if _, err := r.exec(ctx, r.builder().Delete("role_pages").Where(squirrel.Eq{"role_id": roleID}), "clear role pages"); err != nil {
		return err
	}

	permRows := make([][]any, len(perms))
	for i, k := range perms {
		permRows[i] = []any{roleID, k.Module, k.Action}
	}
	if _, err := r.batch.CopyFromSlice(ctx, "role_permissions", []string{"role_id", "module", "action"}, permRows); err != nil {
		return err
	}

	pageRows := make([][]any, len(pages))
	for i, p := range pages {
		pageRows[i] = []any{roleID, p}
	}
	if _, err := r.batch.CopyFromSlice(ctx, "role_pages", []string{"role_id", "page_key"}, pageRows); err != nil {
		return err
	}

	_, err := r.exec(ctx, r.builder().Update("roles").Set("updated_at", time.Now().UTC()).Where(squirrel.Eq{"id": roleID}), "touch role")
	return err
}

// DeleteRole removes the role. Grants cascade; actors.role_id is set to NULL
// by the foreign key, and a check constraint keeps that to inactive actors.
func (r *Repo) DeleteRole(ctx context.Context, roleID id.ID) error {
	n, err := r.exec(ctx, r.builder().Delete("roles").Where(squirrel.Eq{"id": roleID}), "delete role")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("role", roleID)
	}
	return nil
}

func (r *Repo) CountActiveActors(ctx context.Context, roleID id.ID) (int, error) {
	sql, args, err := r.builder().Select("COUNT(*)").
		From("actors").
		Where(squirrel.Eq{"role_id": roleID, "active": true}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err)
	}
	return n, nil
}
