package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
	"opserp/internal/infrastructure/storage/memstore"
)

var manager = security.Grant("root", security.PermRolesManage)

func seeded(t *testing.T) (*access.Registry, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	reg := access.NewRegistry(store.Access(), store)
	require.NoError(t, reg.Seed(context.Background(), access.DefaultCatalog("admin@example.com")))
	return reg, store
}

func TestSeed_DefaultCatalog(t *testing.T) {
	ctx := context.Background()
	reg, store := seeded(t)

	perms, err := reg.ListPermissions(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, perms, 8)

	roles, err := reg.ListRoles(ctx, manager)
	require.NoError(t, err)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"administrador", "almoxarife", "aprovador", "comprador"}, names)

	admin, err := store.Access().GetActorByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	c, err := reg.ResolveCapability(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, security.Can(c, security.PermRolesManage))
	assert.True(t, security.Can(c, security.PermRequestDelete))
	assert.Contains(t, security.PagesFor(c), access.PageRoles)

	// Seeding twice is idempotent.
	require.NoError(t, reg.Seed(ctx, access.DefaultCatalog("admin@example.com")))
	perms, _ = reg.ListPermissions(ctx, manager)
	assert.Len(t, perms, 8)
}

func TestDefineRole_ReplacesPermissionSet(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)

	role, err := reg.DefineRole(ctx, manager, access.RoleSpec{
		Name:         "  Comprador ",
		AllowedPages: []string{access.PageRequests},
		Permissions:  []security.PermissionKey{security.PermRequestView, security.PermRequestView},
		Active:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "comprador", role.Name)
	assert.Equal(t, []security.PermissionKey{security.PermRequestView}, role.Permissions)

	stored, err := reg.GetRole(ctx, manager, "COMPRADOR")
	require.NoError(t, err)
	assert.Equal(t, []security.PermissionKey{security.PermRequestView}, stored.Permissions)
	assert.Equal(t, []string{access.PageRequests}, stored.AllowedPages)
}

func TestDefineRole_UnknownKeyLeavesRoleIntact(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)
	before, err := reg.GetRole(ctx, manager, "aprovador")
	require.NoError(t, err)

	_, err = reg.DefineRole(ctx, manager, access.RoleSpec{
		Name:        "aprovador",
		Permissions: []security.PermissionKey{security.PermRequestView, security.Key("compras", "voar")},
		Active:      true,
	})
	assert.True(t, apperror.IsNotFound(err))

	_, err = reg.DefineRole(ctx, manager, access.RoleSpec{
		Name:         "aprovador",
		AllowedPages: []string{"relatorios"},
		Active:       true,
	})
	assert.True(t, apperror.IsNotFound(err))

	after, err := reg.GetRole(ctx, manager, "aprovador")
	require.NoError(t, err)
	assert.Equal(t, before.Permissions, after.Permissions)
	assert.Equal(t, before.AllowedPages, after.AllowedPages)
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)

	_, err := reg.UpsertActor(ctx, manager, access.ActorSpec{Email: "ana@example.com", RoleName: "almoxarife", Active: true})
	require.NoError(t, err)

	err = reg.DeleteRole(ctx, manager, "almoxarife")
	assert.True(t, apperror.IsConflict(err))

	_, err = reg.UpsertActor(ctx, manager, access.ActorSpec{Email: "ana@example.com", RoleName: "comprador", Active: true})
	require.NoError(t, err)
	require.NoError(t, reg.DeleteRole(ctx, manager, "almoxarife"))

	_, err = reg.GetRole(ctx, manager, "almoxarife")
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolveCapability_InactiveActorOrRole(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)

	actor, err := reg.UpsertActor(ctx, manager, access.ActorSpec{Email: "bia@example.com", RoleName: "aprovador", Active: false})
	require.NoError(t, err)

	c, err := reg.ResolveCapability(ctx, actor.ID)
	require.NoError(t, err)
	assert.False(t, security.Can(c, security.PermRequestApprove))
	assert.Empty(t, security.PagesFor(c))
	assert.True(t, apperror.IsForbidden(security.Require(c, security.PermRequestApprove)))

	_, err = reg.UpsertActor(ctx, manager, access.ActorSpec{Email: "bia@example.com", RoleName: "aprovador", Active: true})
	require.NoError(t, err)
	c, _ = reg.ResolveCapability(ctx, actor.ID)
	assert.True(t, security.Can(c, security.PermRequestApprove))

	role, _ := reg.GetRole(ctx, manager, "aprovador")
	_, err = reg.DefineRole(ctx, manager, access.RoleSpec{
		Name:         role.Name,
		AllowedPages: role.AllowedPages,
		Permissions:  role.Permissions,
		Active:       false,
	})
	require.NoError(t, err)
	c, _ = reg.ResolveCapability(ctx, actor.ID)
	assert.False(t, security.Can(c, security.PermRequestApprove))

	_, err = reg.ResolveCapability(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRegistry_RequiresRoleManagement(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)
	outsider := security.Grant("x", security.PermRequestView)

	_, err := reg.DefinePermission(ctx, outsider, "compras", "auditar", "")
	assert.True(t, apperror.IsForbidden(err))
	_, err = reg.DefineRole(ctx, outsider, access.RoleSpec{Name: "x"})
	assert.True(t, apperror.IsForbidden(err))
	assert.True(t, apperror.IsForbidden(reg.DeleteRole(ctx, outsider, "comprador")))
	_, err = reg.UpsertActor(ctx, outsider, access.ActorSpec{Email: "a@b", RoleName: "comprador"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestDefinePermission_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)

	p, err := reg.DefinePermission(ctx, manager, "Compras", "Auditar", "first")
	require.NoError(t, err)
	assert.Equal(t, "compras:auditar", p.Key().String())

	_, err = reg.DefinePermission(ctx, manager, "compras", "auditar", "second")
	require.NoError(t, err)

	perms, _ := reg.ListPermissions(ctx, manager)
	assert.Len(t, perms, 9)

	_, err = reg.DefinePermission(ctx, manager, "compras", "", "")
	assert.True(t, apperror.IsInvalidRequest(err))
}

func TestDeleteRole_DetachesInactiveActors(t *testing.T) {
	ctx := context.Background()
	reg, _ := seeded(t)

	actor, err := reg.UpsertActor(ctx, manager, access.ActorSpec{Email: "old@example.com", RoleName: "almoxarife", Active: false})
	require.NoError(t, err)
	require.NoError(t, reg.DeleteRole(ctx, manager, "almoxarife"))

	c, err := reg.ResolveCapability(ctx, actor.ID)
	require.NoError(t, err)
	assert.False(t, c.Active)
	assert.False(t, security.Can(c, security.PermStockView))
}
