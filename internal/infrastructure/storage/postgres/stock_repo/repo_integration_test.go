package stock_repo

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/db"
	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/stock"
	"opserp/internal/infrastructure/storage/postgres"
)

func openTestDB(t *testing.T) *postgres.TxManager {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := strings.TrimSpace(os.Getenv("OPSERP_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("OPSERP_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, db.Migrations, "migrations"))
	return postgres.NewTxManager(pool)
}

func createItem(t *testing.T, repo *Repo, total int64) id.ID {
	t.Helper()
	now := time.Now().UTC()
	item := &stock.Item{
		ID:            id.New(),
		Name:          "race-" + id.New().String(),
		TotalQuantity: total,
		UnitValue:     types.MustMoney("1.00"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	return item.ID
}

func TestLedger_ConcurrentReservationsNeverOverAllocate(t *testing.T) {
	txm := openTestDB(t)
	repo := New(txm)
	ledger := stock.NewLedger(repo, txm)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		itemID := createItem(t, repo, 10)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, qty := range []int64{4, 7} {
			wg.Add(1)
			go func(i int, qty int64) {
				defer wg.Done()
				_, errs[i] = ledger.Reserve(ctx, itemID, qty, "obra-centro")
			}(i, qty)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, apperror.IsInsufficientStock(err), "round %d: %v", round, err)
		}
		assert.Equal(t, 1, succeeded, "round %d", round)

		q, err := ledger.Quantities(ctx, itemID)
		require.NoError(t, err)
		assert.LessOrEqual(t, q.Allocated, q.Total, "round %d", round)
		assert.GreaterOrEqual(t, q.Available, int64(0), "round %d", round)
	}

	items, err := repo.ListItems(ctx, stock.ItemFilter{Search: "race-", Limit: 500})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(items), 20)
	for _, it := range items {
		assert.LessOrEqual(t, it.AllocatedQuantity, it.TotalQuantity, it.Name)
	}
}

func TestGetItemForUpdate_SeesCommittedAllocations(t *testing.T) {
	txm := openTestDB(t)
	repo := New(txm)
	ctx := context.Background()
	itemID := createItem(t, repo, 10)

	holding := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if _, err := repo.GetItemForUpdate(ctx, itemID); err != nil {
				return err
			}
			close(holding)
			time.Sleep(200 * time.Millisecond)
			return repo.CreateAllocation(ctx, &stock.Allocation{
				ID:        id.New(),
				ItemID:    itemID,
				Quantity:  4,
				OwnerRef:  "obra-centro",
				CreatedAt: time.Now().UTC(),
			})
		})
	}()

	<-holding
	var item *stock.Item
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = repo.GetItemForUpdate(ctx, itemID)
		return err
	})
	require.NoError(t, <-done)
	require.NoError(t, err)
	assert.Equal(t, int64(4), item.AllocatedQuantity)
	assert.Equal(t, int64(6), item.AvailableQuantity())
}
