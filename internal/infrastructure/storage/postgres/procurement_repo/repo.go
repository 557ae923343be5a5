// Package procurement_repo provides the PostgreSQL implementation of procurement.Repository.
package procurement_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/quotation"
	"opserp/internal/infrastructure/storage/postgres"
)

const tableName = "purchase_requests"

var selectCols = postgres.Columns(procurement.PurchaseRequest{})

var _ procurement.Repository = (*Repo)(nil)

// Repo implements procurement.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates a purchase request repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// values maps a request to its columns. JSON columns are encoded here so
// that the driver passes them through unchanged.
func values(req *procurement.PurchaseRequest) (map[string]any, error) {
	data := postgres.StructToMap(req)

	quotations := req.Quotations
	if quotations == nil {
		quotations = []quotation.Quotation{}
	}
	q, err := json.Marshal(quotations)
	if err != nil {
		return nil, fmt.Errorf("marshal quotations: %w", err)
	}
	data["quotations"] = q

	if req.DeliveryInfo != nil {
		d, err := json.Marshal(req.DeliveryInfo)
		if err != nil {
			return nil, fmt.Errorf("marshal delivery info: %w", err)
		}
		data["delivery_info"] = d
	} else {
		data["delivery_info"] = nil
	}
	return data, nil
}

func (r *Repo) Create(ctx context.Context, req *procurement.PurchaseRequest) error {
	data, err := values(req)
	if err != nil {
		return err
	}

	sql, args, err := r.builder().Insert(tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert purchase request: %w", err))
	}
	return nil
}

func (r *Repo) get(ctx context.Context, requestID id.ID, lock bool) (*procurement.PurchaseRequest, error) {
	q := r.builder().Select(selectCols...).From(tableName).Where(squirrel.Eq{"id": requestID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var req procurement.PurchaseRequest
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &req, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("purchase_request", requestID)
		}
		return nil, postgres.MapError(fmt.Errorf("get purchase request: %w", err))
	}
	return &req, nil
}

func (r *Repo) GetByID(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	return r.get(ctx, requestID, false)
}

func (r *Repo) GetForUpdate(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	return r.get(ctx, requestID, true)
}

// Update writes req with optimistic locking on version.
func (r *Repo) Update(ctx context.Context, req *procurement.PurchaseRequest) error {
	data, err := values(req)
	if err != nil {
		return err
	}
	for _, col := range []string{"id", "version", "created_at", "requested_by"} {
		delete(data, col)
	}

	sql, args, err := r.builder().Update(tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": req.ID}).
		Where(squirrel.Eq{"version": req.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	q := r.txm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update purchase request: %w", err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM purchase_requests WHERE id = $1)", req.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check existence: %w", err)
		}
		if !exists {
			return apperror.NewNotFound("purchase_request", req.ID)
		}
		return apperror.NewConcurrentModification("purchase_request", req.ID)
	}

	req.Version++
	return nil
}

func (r *Repo) Delete(ctx context.Context, requestID id.ID) error {
	sql, args, err := r.builder().Delete(tableName).Where(squirrel.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete purchase request: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase_request", requestID)
	}
	return nil
}

// listQuery builds the List statement. Newest first: ids are time-ordered.
func (r *Repo) listQuery(f procurement.ListFilter) squirrel.SelectBuilder {
	q := r.builder().Select(selectCols...).From(tableName).OrderBy("id DESC")

	switch {
	case f.Status != nil:
		q = q.Where(squirrel.Eq{"status": *f.Status})
	case !f.IncludeRejected:
		q = q.Where(squirrel.NotEq{"status": procurement.StatusRejected})
	}
	if f.ProjectRef != nil {
		q = q.Where(squirrel.Eq{"project_ref": *f.ProjectRef})
	}
	if f.RequestedBy != nil {
		q = q.Where(squirrel.Eq{"requested_by": *f.RequestedBy})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

func (r *Repo) List(ctx context.Context, f procurement.ListFilter) ([]procurement.PurchaseRequest, error) {
	sql, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []procurement.PurchaseRequest
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
			return fmt.Errorf("list purchase requests: %w", err)
		}
		return nil
	})
	return out, err
}
