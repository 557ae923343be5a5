// Package access_repo provides the PostgreSQL implementation of access.Repository.
package access_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"opserp/internal/core/apperror"
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
	"opserp/internal/infrastructure/storage/postgres"
)

var _ access.Repository = (*Repo)(nil)

// Repo implements access.Repository.
type Repo struct {
	txm   *postgres.TxManager
	batch *postgres.BatchInserter
}

// New creates an access repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm, batch: postgres.NewBatchInserter(txm)}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo) exec(ctx context.Context, q squirrel.Sqlizer, what string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", what, err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(fmt.Errorf("%s: %w", what, err))
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) get(ctx context.Context, dst any, q squirrel.Sqlizer, entity string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFound(entity, key)
		}
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

func (r *Repo) list(ctx context.Context, dst any, q squirrel.Sqlizer, what string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", what, err)
	}
	return nil
}

// --- Permissions and pages ---

func (r *Repo) UpsertPermission(ctx context.Context, p *access.Permission) error {
	q := r.builder().Insert("permissions").
		Columns("module", "action", "description", "created_at").
		Values(p.Module, p.Action, p.Description, p.CreatedAt).
		Suffix("ON CONFLICT (module, action) DO UPDATE SET description = EXCLUDED.description RETURNING created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&p.CreatedAt); err != nil {
		return postgres.MapError(fmt.Errorf("upsert permission: %w", err))
	}
	return nil
}

func (r *Repo) ListPermissions(ctx context.Context) ([]access.Permission, error) {
	var out []access.Permission
	q := r.builder().Select(postgres.Columns(access.Permission{})...).From("permissions").OrderBy("module", "action")
	return out, r.list(ctx, &out, q, "permissions")
}

func (r *Repo) MissingPermissions(ctx context.Context, keys []security.PermissionKey) ([]security.PermissionKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	known, err := r.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[security.PermissionKey]struct{}, len(known))
	for _, p := range known {
		set[p.Key()] = struct{}{}
	}
	var missing []security.PermissionKey
	for _, k := range keys {
		if _, ok := set[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

func (r *Repo) UpsertPage(ctx context.Context, p *access.Page) error {
	q := r.builder().Insert("pages").
		Columns("key", "title").
		Values(p.Key, p.Title).
		Suffix("ON CONFLICT (key) DO UPDATE SET title = EXCLUDED.title")
	_, err := r.exec(ctx, q, "upsert page")
	return err
}

func (r *Repo) ListPages(ctx context.Context) ([]access.Page, error) {
	var out []access.Page
	q := r.builder().Select("key", "title").From("pages").OrderBy("key")
	return out, r.list(ctx, &out, q, "pages")
}

func (r *Repo) MissingPages(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var found []string
	q := r.builder().Select("key").From("pages").Where(squirrel.Eq{"key": keys})
	if err := r.list(ctx, &found, q, "pages"); err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(found))
	for _, k := range found {
		set[k] = struct{}{}
	}
	var missing []string
	for _, k := range keys {
		if _, ok := set[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing, nil
}
