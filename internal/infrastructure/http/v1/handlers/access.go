package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"opserp/internal/core/security"
	"opserp/internal/domain/access"
	"opserp/internal/infrastructure/http/v1/dto"
)

// Registry is the part of access.Registry the handler uses.
type Registry interface {
	DefinePermission(ctx context.Context, c *security.Capability, module, action, description string) (*access.Permission, error)
	DefinePage(ctx context.Context, c *security.Capability, key, title string) (*access.Page, error)
	DefineRole(ctx context.Context, c *security.Capability, spec access.RoleSpec) (*access.Role, error)
	DeleteRole(ctx context.Context, c *security.Capability, name string) error
	UpsertActor(ctx context.Context, c *security.Capability, spec access.ActorSpec) (*access.Actor, error)
	GetRole(ctx context.Context, c *security.Capability, name string) (*access.Role, error)
	ListRoles(ctx context.Context, c *security.Capability) ([]access.Role, error)
	ListPermissions(ctx context.Context, c *security.Capability) ([]access.Permission, error)
	ListPages(ctx context.Context, c *security.Capability) ([]access.Page, error)
}

// AccessHandler handles the role and permission registry endpoints.
type AccessHandler struct {
	*BaseHandler
	registry Registry
}

// NewAccessHandler creates an access handler.
func NewAccessHandler(base *BaseHandler, registry Registry) *AccessHandler {
	return &AccessHandler{BaseHandler: base, registry: registry}
}

// Me handles GET /me
func (h *AccessHandler) Me(c *gin.Context) {
	capability := h.Capability(c)
	if capability == nil {
		capability = &security.Capability{}
	}
	email := ""
	if u := h.User(c); u != nil {
		email = u.Email
	}
	h.OK(c, dto.FromCapability(capability, email))
}

// MyPages handles GET /me/pages
func (h *AccessHandler) MyPages(c *gin.Context) {
	h.OK(c, dto.PagesResponse{Pages: security.PagesFor(h.Capability(c))})
}

// ListPermissions handles GET /permissions
func (h *AccessHandler) ListPermissions(c *gin.Context) {
	perms, err := h.registry.ListPermissions(c.Request.Context(), h.Capability(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if perms == nil {
		perms = []access.Permission{}
	}
	h.OK(c, gin.H{"items": perms})
}

// DefinePermission handles POST /permissions
func (h *AccessHandler) DefinePermission(c *gin.Context) {
	var req dto.DefinePermissionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	perm, err := h.registry.DefinePermission(c.Request.Context(), h.Capability(c), req.Module, req.Action, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, perm)
}

// ListPages handles GET /pages
func (h *AccessHandler) ListPages(c *gin.Context) {
	pages, err := h.registry.ListPages(c.Request.Context(), h.Capability(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if pages == nil {
		pages = []access.Page{}
	}
	h.OK(c, gin.H{"items": pages})
}

// DefinePage handles POST /pages
func (h *AccessHandler) DefinePage(c *gin.Context) {
	var req dto.DefinePageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	page, err := h.registry.DefinePage(c.Request.Context(), h.Capability(c), req.Key, req.Title)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}

// ListRoles handles GET /roles
func (h *AccessHandler) ListRoles(c *gin.Context) {
	roles, err := h.registry.ListRoles(c.Request.Context(), h.Capability(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if roles == nil {
		roles = []access.Role{}
	}
	h.OK(c, gin.H{"items": roles})
}

// GetRole handles GET /roles/:name
func (h *AccessHandler) GetRole(c *gin.Context) {
	role, err := h.registry.GetRole(c.Request.Context(), h.Capability(c), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, role)
}

// DefineRole handles PUT /roles/:name
func (h *AccessHandler) DefineRole(c *gin.Context) {
	var req dto.DefineRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	spec, err := req.ToSpec(c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}

	role, err := h.registry.DefineRole(c.Request.Context(), h.Capability(c), spec)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, role)
}

// DeleteRole handles DELETE /roles/:name
func (h *AccessHandler) DeleteRole(c *gin.Context) {
	if err := h.registry.DeleteRole(c.Request.Context(), h.Capability(c), c.Param("name")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UpsertActor handles PUT /actors
func (h *AccessHandler) UpsertActor(c *gin.Context) {
	var req dto.UpsertActorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	actor, err := h.registry.UpsertActor(c.Request.Context(), h.Capability(c), req.ToSpec())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, actor)
}
