package memstore

import (
	"context"
	"sort"
	"strings"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct{ s *Store }

var _ stock.Repository = (*StockRepo)(nil)

func allocated(st *state, itemID id.ID) int64 {
	var sum int64
	for _, a := range st.allocations {
		if a.ItemID == itemID {
			sum += a.Quantity
		}
	}
	return sum
}

func (r *StockRepo) GetItem(ctx context.Context, itemID id.ID) (*stock.Item, error) {
	var out *stock.Item
	err := r.s.do(ctx, func(st *state) error {
		item, ok := st.items[itemID]
		if !ok {
			return apperror.NewNotFound("stock_item", itemID)
		}
		item = cloneItem(item)
		item.AllocatedQuantity = allocated(st, itemID)
		out = &item
		return nil
	})
	return out, err
}

// GetItemForUpdate is GetItem; the transaction already holds the store lock.
func (r *StockRepo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*stock.Item, error) {
	return r.GetItem(ctx, itemID)
}

func (r *StockRepo) ListItems(ctx context.Context, filter stock.ItemFilter) ([]stock.Item, error) {
	var out []stock.Item
	err := r.s.do(ctx, func(st *state) error {
		for _, item := range st.items {
			if filter.ProjectRef != nil && (item.ProjectRef == nil || *item.ProjectRef != *filter.ProjectRef) {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
				continue
			}
			item = cloneItem(item)
			item.AllocatedQuantity = allocated(st, item.ID)
			out = append(out, item)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Offset, filter.Limit), err
}

func (r *StockRepo) CreateItem(ctx context.Context, item *stock.Item) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return apperror.NewDuplicate("stock_item", "id", item.ID.String())
		}
		v := cloneItem(*item)
		v.AllocatedQuantity = 0
		st.items[item.ID] = v
		return nil
	})
}

func (r *StockRepo) UpdateItem(ctx context.Context, item *stock.Item) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return apperror.NewNotFound("stock_item", item.ID)
		}
		v := cloneItem(*item)
		v.AllocatedQuantity = 0
		st.items[item.ID] = v
		return nil
	})
}

func (r *StockRepo) CreateAllocation(ctx context.Context, alloc *stock.Allocation) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.items[alloc.ItemID]; !ok {
			return apperror.NewNotFound("stock_item", alloc.ItemID)
		}
		st.allocations[alloc.ID] = *alloc
		return nil
	})
}

func (r *StockRepo) GetAllocation(ctx context.Context, allocationID id.ID) (*stock.Allocation, error) {
	var out *stock.Allocation
	err := r.s.do(ctx, func(st *state) error {
		a, ok := st.allocations[allocationID]
		if !ok {
			return apperror.NewNotFound("allocation", allocationID)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *StockRepo) DeleteAllocation(ctx context.Context, allocationID id.ID) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.allocations[allocationID]; !ok {
			return apperror.NewNotFound("allocation", allocationID)
		}
		delete(st.allocations, allocationID)
		return nil
	})
}

func (r *StockRepo) ListAllocations(ctx context.Context, itemID id.ID) ([]stock.Allocation, error) {
	var out []stock.Allocation
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.allocations {
			if a.ItemID == itemID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, err
}

func page[T any](rows []T, offset, limit int) []T {
	if offset > len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
