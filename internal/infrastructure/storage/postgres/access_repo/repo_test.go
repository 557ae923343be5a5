package access_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"opserp/internal/core/id"
	"opserp/internal/domain/access"
)

func TestActorValues_DetachedRoleIsNull(t *testing.T) {
	a := &access.Actor{ID: id.New(), Email: "x@y", Active: false, RoleID: id.Nil()}
	assert.Nil(t, actorValues(a)["role_id"])

	roleID := id.New()
	a.RoleID = roleID
	assert.Equal(t, roleID, actorValues(a)["role_id"])
}

func TestRoleColumns_SkipGrants(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "description", "active", "created_at", "updated_at"}, roleColumns)
}
