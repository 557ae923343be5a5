package access

import "opserp/internal/core/security"

// Page keys of the seeded navigation catalog.
const (
	PageDashboard = "dashboard"
	PageRequests  = "compras"
	PageApprovals = "aprovacoes"
	PageStock     = "estoque"
	PageRoles     = "cargos"
)

// DefaultCatalog returns the bootstrap permissions, pages and roles.
// When adminEmail is non-empty an active administrator actor is included.
func DefaultCatalog(adminEmail string) Catalog {
	perm := func(k security.PermissionKey, desc string) Permission {
		return Permission{Module: k.Module, Action: k.Action, Description: desc}
	}

	c := Catalog{
		Permissions: []Permission{
			perm(security.PermRequestCreate, "Submit purchase requests"),
			perm(security.PermRequestApprove, "Approve, reject and advance purchase requests"),
			perm(security.PermRequestDelete, "Delete purchase requests"),
			perm(security.PermRequestView, "View purchase requests"),
			perm(security.PermStockEdit, "Create and edit stock items"),
			perm(security.PermStockAllocate, "Allocate and release stock"),
			perm(security.PermStockView, "View stock"),
			perm(security.PermRolesManage, "Manage roles, permissions and actors"),
		},
		Pages: []Page{
			{Key: PageDashboard, Title: "Painel"},
			{Key: PageRequests, Title: "Compras"},
			{Key: PageApprovals, Title: "Aprovações"},
			{Key: PageStock, Title: "Estoque"},
			{Key: PageRoles, Title: "Cargos"},
		},
		Roles: []RoleSpec{
			{
				Name:         "administrador",
				Description:  "Full access",
				AllowedPages: []string{PageDashboard, PageRequests, PageApprovals, PageStock, PageRoles},
				Permissions: []security.PermissionKey{
					security.PermRequestCreate, security.PermRequestApprove,
					security.PermRequestDelete, security.PermRequestView,
					security.PermStockEdit, security.PermStockAllocate,
					security.PermStockView, security.PermRolesManage,
				},
				Active: true,
			},
			{
				Name:         "comprador",
				Description:  "Submits and follows purchase requests",
				AllowedPages: []string{PageDashboard, PageRequests},
				Permissions: []security.PermissionKey{
					security.PermRequestCreate, security.PermRequestView, security.PermStockView,
				},
				Active: true,
			},
			{
				Name:         "aprovador",
				Description:  "Approves purchase requests and tracks delivery",
				AllowedPages: []string{PageDashboard, PageRequests, PageApprovals},
				Permissions: []security.PermissionKey{
					security.PermRequestApprove, security.PermRequestView, security.PermStockView,
				},
				Active: true,
			},
			{
				Name:         "almoxarife",
				Description:  "Keeps stock and allocations",
				AllowedPages: []string{PageDashboard, PageStock},
				Permissions: []security.PermissionKey{
					security.PermStockEdit, security.PermStockAllocate, security.PermStockView,
				},
				Active: true,
			},
		},
	}

	if adminEmail != "" {
		c.Actors = append(c.Actors, ActorSpec{
			Email:    adminEmail,
			Name:     "Administrator",
			RoleName: "administrador",
			Active:   true,
		})
	}
	return c
}
