// Package stock_repo provides the PostgreSQL implementation of stock.Repository.
package stock_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/stock"
	"opserp/internal/infrastructure/storage/postgres"
)

const (
	itemsTable       = "stock_items"
	allocationsTable = "stock_allocations"
)

// allocatedExpr derives the allocated quantity from the allocation rows.
const allocatedExpr = "COALESCE((SELECT SUM(a.quantity) FROM stock_allocations a WHERE a.item_id = i.id), 0) AS allocated_quantity"

var _ stock.Repository = (*Repo)(nil)

// Repo implements stock.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates a stock repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// itemColumns are the stored columns of stock_items.
var itemColumns = func() []string {
	var cols []string
	for _, c := range postgres.Columns(stock.Item{}) {
		if c != "allocated_quantity" {
			cols = append(cols, c)
		}
	}
	return cols
}()

func (r *Repo) selectItems() squirrel.SelectBuilder {
	cols := append(postgres.PrefixColumns("i", itemColumns), allocatedExpr)
	return r.builder().Select(cols...).From(itemsTable + " i")
}

func (r *Repo) getItem(ctx context.Context, itemID id.ID) (*stock.Item, error) {
	sql, args, err := r.selectItems().Where(squirrel.Eq{"i.id": itemID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var item stock.Item
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("stock_item", itemID)
		}
		return nil, postgres.MapError(fmt.Errorf("get stock item: %w", err))
	}
	return &item, nil
}

// lockItem takes the item row lock with a statement of its own.
func (r *Repo) lockItem(ctx context.Context, itemID id.ID) error {
	sql, args, err := r.builder().
		Select("id").
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock: %w", err)
	}

	var locked id.ID
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFound("stock_item", itemID)
		}
		return postgres.MapError(fmt.Errorf("lock stock item: %w", err))
	}
	return nil
}

func (r *Repo) GetItem(ctx context.Context, itemID id.ID) (*stock.Item, error) {
	return r.getItem(ctx, itemID)
}

// GetItemForUpdate locks the item row, then reads it with its allocated sum.
// Allocations never update the item row, so the sum must come from a
// statement started after the lock is held.
func (r *Repo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*stock.Item, error) {
	if err := r.lockItem(ctx, itemID); err != nil {
		return nil, err
	}
	return r.getItem(ctx, itemID)
}

func (r *Repo) ListItems(ctx context.Context, filter stock.ItemFilter) ([]stock.Item, error) {
	q := r.selectItems().OrderBy("i.name", "i.id")

	if filter.ProjectRef != nil {
		q = q.Where(squirrel.Eq{"i.project_ref": *filter.ProjectRef})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"i.name": "%" + s + "%"})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var items []stock.Item
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
			return fmt.Errorf("list stock items: %w", err)
		}
		return nil
	})
	return items, err
}

func itemValues(item *stock.Item) map[string]any {
	data := postgres.StructToMap(item, "allocated_quantity")
	if item.Attachments == nil {
		data["attachments"] = []string{}
	}
	return data
}

func (r *Repo) CreateItem(ctx context.Context, item *stock.Item) error {
	sql, args, err := r.builder().Insert(itemsTable).SetMap(itemValues(item)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert stock item: %w", err))
	}
	return nil
}

func (r *Repo) UpdateItem(ctx context.Context, item *stock.Item) error {
	data := itemValues(item)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := r.builder().Update(itemsTable).
		SetMap(data).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update stock item: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock_item", item.ID)
	}
	return nil
}

func (r *Repo) CreateAllocation(ctx context.Context, alloc *stock.Allocation) error {
	sql, args, err := r.builder().Insert(allocationsTable).SetMap(postgres.StructToMap(alloc)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert allocation: %w", err))
	}
	return nil
}

func (r *Repo) GetAllocation(ctx context.Context, allocationID id.ID) (*stock.Allocation, error) {
	sql, args, err := r.builder().
		Select(postgres.Columns(stock.Allocation{})...).
		From(allocationsTable).
		Where(squirrel.Eq{"id": allocationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var alloc stock.Allocation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &alloc, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("allocation", allocationID)
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return &alloc, nil
}

func (r *Repo) DeleteAllocation(ctx context.Context, allocationID id.ID) error {
	sql, args, err := r.builder().Delete(allocationsTable).Where(squirrel.Eq{"id": allocationID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete allocation: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("allocation", allocationID)
	}
	return nil
}

func (r *Repo) ListAllocations(ctx context.Context, itemID id.ID) ([]stock.Allocation, error) {
	sql, args, err := r.builder().
		Select(postgres.Columns(stock.Allocation{})...).
		From(allocationsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var allocs []stock.Allocation
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &allocs, sql, args...); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocs, nil
}
