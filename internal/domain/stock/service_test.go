package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/core/types"
	"opserp/internal/domain/stock"
	"opserp/internal/infrastructure/storage/memstore"
)

var keeper = security.Grant("keeper", security.PermStockEdit, security.PermStockAllocate, security.PermStockView)

func newLedger(t *testing.T) (*stock.Ledger, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return stock.NewLedger(store.Stock(), store), store
}

func newItem(t *testing.T, l *stock.Ledger, total int64) *stock.Item {
	t.Helper()
	item, err := l.UpsertItem(context.Background(), keeper, stock.ItemSpec{
		Name:          "Drill",
		TotalQuantity: total,
		UnitValue:     types.MustMoney("12.50"),
	})
	require.NoError(t, err)
	return item
}

func assertBalanced(t *testing.T, l *stock.Ledger, itemID id.ID, total int64) stock.Quantities {
	t.Helper()
	q, err := l.Quantities(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, total, q.Total)
	assert.Equal(t, q.Total, q.Allocated+q.Available)
	assert.GreaterOrEqual(t, q.Available, int64(0))
	return q
}

func TestAllocateRelease_KeepsInvariant(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	item := newItem(t, l, 10)

	a1, err := l.Allocate(ctx, keeper, item.ID, 3, "project:p1")
	require.NoError(t, err)
	q := assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(7), q.Available)

	a2, err := l.Allocate(ctx, keeper, item.ID, 7, "project:p2")
	require.NoError(t, err)
	q = assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(0), q.Available)

	_, err = l.Allocate(ctx, keeper, item.ID, 1, "project:p3")
	assert.True(t, apperror.IsInsufficientStock(err))

	require.NoError(t, l.Release(ctx, keeper, a1))
	q = assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(3), q.Available)

	require.NoError(t, l.Release(ctx, keeper, a2))
	q = assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(0), q.Allocated)

	err = l.Release(ctx, keeper, a2)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAllocate_ConcurrentFourAndSeven(t *testing.T) {
	for run := 0; run < 20; run++ {
		ctx := context.Background()
		l, _ := newLedger(t)
		item := newItem(t, l, 10)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, qty := range []int64{4, 7} {
			wg.Add(1)
			go func(i int, qty int64) {
				defer wg.Done()
				_, errs[i] = l.Allocate(ctx, keeper, item.ID, qty, "project:p")
			}(i, qty)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, apperror.IsInsufficientStock(err), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)

		q := assertBalanced(t, l, item.ID, 10)
		assert.Contains(t, []int64{4, 7}, q.Allocated)
	}
}

func TestAllocate_ConcurrentOversubscription(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	item := newItem(t, l, 10)

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Allocate(ctx, keeper, item.ID, 1, "project:p")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.True(t, apperror.IsInsufficientStock(err))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	q := assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(10), q.Allocated)
}

func TestUpsertItem_Validation(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	item := newItem(t, l, 10)

	_, err := l.UpsertItem(ctx, keeper, stock.ItemSpec{Name: "Bad", TotalQuantity: -1})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = l.UpsertItem(ctx, keeper, stock.ItemSpec{Name: "Bad", UnitValue: types.MustMoney("-0.01")})
	assert.True(t, apperror.IsInvalidRequest(err))

	_, err = l.Allocate(ctx, keeper, item.ID, 6, "project:p")
	require.NoError(t, err)

	_, err = l.UpsertItem(ctx, keeper, stock.ItemSpec{ID: &item.ID, Name: "Drill", TotalQuantity: 5})
	assert.True(t, apperror.IsInsufficientStock(err))
	assertBalanced(t, l, item.ID, 10)

	updated, err := l.UpsertItem(ctx, keeper, stock.ItemSpec{ID: &item.ID, Name: "Drill XL", TotalQuantity: 6})
	require.NoError(t, err)
	assert.Equal(t, "Drill XL", updated.Name)
	assert.Equal(t, int64(0), updated.AvailableQuantity())

	missing := id.New()
	_, err = l.UpsertItem(ctx, keeper, stock.ItemSpec{ID: &missing, Name: "Ghost"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestAllocate_RejectsNonPositiveQuantity(t *testing.T) {
	l, _ := newLedger(t)
	item := newItem(t, l, 10)

	_, err := l.Allocate(context.Background(), keeper, item.ID, 0, "project:p")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))
}

func TestLedger_ForbiddenWithoutPermission(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	item := newItem(t, l, 10)
	viewer := security.Grant("viewer", security.PermStockView)

	_, err := l.Allocate(ctx, viewer, item.ID, 1, "project:p")
	assert.True(t, apperror.IsForbidden(err))

	_, err = l.UpsertItem(ctx, viewer, stock.ItemSpec{Name: "X"})
	assert.True(t, apperror.IsForbidden(err))

	// Unknown ids still yield FORBIDDEN, never NOT_FOUND.
	err = l.Release(ctx, viewer, id.New())
	assert.True(t, apperror.IsForbidden(err))

	inactive := security.Grant("gone", security.PermStockAllocate)
	inactive.Active = false
	_, err = l.Allocate(ctx, inactive, item.ID, 1, "project:p")
	assert.True(t, apperror.IsForbidden(err))

	q := assertBalanced(t, l, item.ID, 10)
	assert.Equal(t, int64(0), q.Allocated)
}

func TestListAllocations(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	item := newItem(t, l, 10)

	_, err := l.Allocate(ctx, keeper, item.ID, 2, "project:a")
	require.NoError(t, err)
	_, err = l.Allocate(ctx, keeper, item.ID, 3, "project:b")
	require.NoError(t, err)

	allocs, err := l.ListAllocations(ctx, keeper, item.ID)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "project:a", allocs[0].OwnerRef)
	assert.Equal(t, int64(3), allocs[1].Quantity)

	items, err := l.ListItems(ctx, keeper, stock.ItemFilter{Search: "dri"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].AllocatedQuantity)
}
