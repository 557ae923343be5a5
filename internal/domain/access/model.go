// Package access provides the role/permission registry and actor resolution.
package access

import (
	"strings"
	"time"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
)

// Permission is one catalog entry. The (module, action) pair is immutable.
type Permission struct {
	Module      string    `db:"module" json:"module"`
	Action      string    `db:"action" json:"action"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Key returns the permission's key.
func (p Permission) Key() security.PermissionKey {
	return security.PermissionKey{Module: p.Module, Action: p.Action}
}

// Page is a navigable surface that roles may be allowed to open.
type Page struct {
	Key   string `db:"key" json:"key"`
	Title string `db:"title" json:"title"`
}

// Role bundles permissions and allowed pages. Name is stored lower-cased.
type Role struct {
	ID           id.ID                    `db:"id" json:"id"`
	Name         string                   `db:"name" json:"name"`
	Description  string                   `db:"description" json:"description,omitempty"`
	Active       bool                     `db:"active" json:"active"`
	CreatedAt    time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time                `db:"updated_at" json:"updatedAt"`
	AllowedPages []string                 `db:"-" json:"allowedPages"`
	Permissions  []security.PermissionKey `db:"-" json:"permissions"`
}

// Actor is a user of the system with exactly one role.
// RoleID is nil only for an inactive actor whose role was deleted.
type Actor struct {
	ID        id.ID     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	RoleID    id.ID     `db:"role_id" json:"roleId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NormalizeRoleName lower-cases and trims a role name.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RoleSpec is the input of DefineRole.
type RoleSpec struct {
	Name         string
	Description  string
	AllowedPages []string
	Permissions  []security.PermissionKey
	Active       bool
}

// Validate checks the spec without consulting the catalog.
func (s *RoleSpec) Validate() error {
	if NormalizeRoleName(s.Name) == "" {
		return apperror.NewInvalidRequest("role name is required").WithDetail("field", "name")
	}
	for _, k := range s.Permissions {
		if k.Module == "" || k.Action == "" {
			return apperror.NewInvalidRequest("permission key must have module and action").
				WithDetail("permission", k.String())
		}
	}
	return nil
}

// ActorSpec is the input of UpsertActor. Email identifies the actor.
type ActorSpec struct {
	Email    string
	Name     string
	RoleName string
	Active   bool
}

// Validate checks the spec.
func (s *ActorSpec) Validate() error {
	if strings.TrimSpace(s.Email) == "" {
		return apperror.NewInvalidRequest("email is required").WithDetail("field", "email")
	}
	if NormalizeRoleName(s.RoleName) == "" {
		return apperror.NewInvalidRequest("role is required").WithDetail("field", "role")
	}
	return nil
}

// Catalog is the bootstrap content of the registry.
type Catalog struct {
	Permissions []Permission
	Pages       []Page
	Roles       []RoleSpec
	Actors      []ActorSpec
}
