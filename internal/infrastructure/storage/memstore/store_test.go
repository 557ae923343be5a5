package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/stock"
)

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Stock()

	item := &stock.Item{ID: id.New(), Name: "Drill", TotalQuantity: 10, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateItem(ctx, item))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateAllocation(ctx, &stock.Allocation{ID: id.New(), ItemID: item.ID, Quantity: 3}))
		// nested call joins the outer transaction
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AllocatedQuantity)
}

func TestRequestRepo_UpdateChecksVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Requests()

	req := newRequest()
	require.NoError(t, repo.Create(ctx, req))

	first, _ := repo.GetByID(ctx, req.ID)
	second, _ := repo.GetByID(ctx, req.ID)

	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	err := repo.Update(ctx, second)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestGetItem_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Stock()

	item := &stock.Item{ID: id.New(), Name: "Saw", Attachments: []string{"a.pdf"}}
	require.NoError(t, repo.CreateItem(ctx, item))

	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	got.Attachments[0] = "changed"

	again, _ := repo.GetItem(ctx, item.ID)
	assert.Equal(t, "a.pdf", again.Attachments[0])
}
