package dto

import (
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
)

// DefinePermissionRequest is the body of POST /permissions.
type DefinePermissionRequest struct {
	Module      string `json:"module" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

// DefinePageRequest is the body of POST /pages.
type DefinePageRequest struct {
	Key   string `json:"key" binding:"required"`
	Title string `json:"title"`
}

// DefineRoleRequest is the body of PUT /roles/:name.
// Permissions use the "module:action" form.
type DefineRoleRequest struct {
	Description  string   `json:"description"`
	Permissions  []string `json:"permissions"`
	AllowedPages []string `json:"allowedPages"`
	Active       *bool    `json:"active"`
}

// ToSpec converts DTO to the registry input.
func (r *DefineRoleRequest) ToSpec(name string) (access.RoleSpec, error) {
	spec := access.RoleSpec{
		Name:         name,
		Description:  r.Description,
		AllowedPages: r.AllowedPages,
		Active:       r.Active == nil || *r.Active,
	}
	for _, raw := range r.Permissions {
		k, err := security.ParseKey(raw)
		if err != nil {
			return spec, invalidField("permissions", "must use the module:action form")
		}
		spec.Permissions = append(spec.Permissions, k)
	}
	return spec, nil
}

// UpsertActorRequest is the body of PUT /actors.
type UpsertActorRequest struct {
	Email  string `json:"email" binding:"required"`
	Name   string `json:"name"`
	Role   string `json:"role" binding:"required"`
	Active *bool  `json:"active"`
}

// ToSpec converts DTO to the registry input.
func (r *UpsertActorRequest) ToSpec() access.ActorSpec {
	return access.ActorSpec{
		Email:    r.Email,
		Name:     r.Name,
		RoleName: r.Role,
		Active:   r.Active == nil || *r.Active,
	}
}

// MeResponse describes the calling actor.
type MeResponse struct {
	ActorID     string   `json:"actorId"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Active      bool     `json:"active"`
	Permissions []string `json:"permissions"`
	Pages       []string `json:"pages"`
}

// FromCapability creates the response of GET /me.
func FromCapability(c *security.Capability, email string) MeResponse {
	resp := MeResponse{
		ActorID:     c.ActorID,
		Email:       email,
		Role:        c.RoleName,
		Active:      c.Active,
		Permissions: []string{},
		Pages:       security.PagesFor(c),
	}
	if c.Active {
		for _, k := range c.Permissions.Keys() {
			resp.Permissions = append(resp.Permissions, k.String())
		}
	}
	return resp
}

// PagesResponse is the body of GET /me/pages.
type PagesResponse struct {
	Pages []string `json:"pages"`
}
