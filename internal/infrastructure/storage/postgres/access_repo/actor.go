package access_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/access"
)

// actorColumns reads a detached actor's NULL role_id as the nil UUID.
var actorColumns = []string{
	"id", "email", "name", "active",
	"COALESCE(role_id, '00000000-0000-0000-0000-000000000000'::uuid) AS role_id",
	"created_at", "updated_at",
}

func actorValues(a *access.Actor) map[string]any {
	var roleID any = a.RoleID
	if id.IsNil(a.RoleID) {
		roleID = nil
	}
	return map[string]any{
		"id":         a.ID,
		"email":      a.Email,
		"name":       a.Name,
		"active":     a.Active,
		"role_id":    roleID,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
}

func (r *Repo) getActor(ctx context.Context, where squirrel.Sqlizer, key any) (*access.Actor, error) {
	var a access.Actor
	q := r.builder().Select(actorColumns...).From("actors").Where(where)
	if err := r.get(ctx, &a, q, "actor", key); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) GetActor(ctx context.Context, actorID id.ID) (*access.Actor, error) {
	return r.getActor(ctx, squirrel.Eq{"id": actorID}, actorID)
}

func (r *Repo) GetActorByEmail(ctx context.Context, email string) (*access.Actor, error) {
	return r.getActor(ctx, squirrel.Eq{"email": email}, email)
}

func (r *Repo) CreateActor(ctx context.Context, actor *access.Actor) error {
	_, err := r.exec(ctx, r.builder().Insert("actors").SetMap(actorValues(actor)), "insert actor")
	return err
}

func (r *Repo) UpdateActor(ctx context.Context, actor *access.Actor) error {
	data := actorValues(actor)
	delete(data, "id")
	delete(data, "created_at")

	n, err := r.exec(ctx, r.builder().Update("actors").SetMap(data).Where(squirrel.Eq{"id": actor.ID}), "update actor")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("actor", actor.ID)
	}
	return nil
}
