package stock_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/stock"
)

func TestItemColumns_ExcludeDerived(t *testing.T) {
	assert.NotContains(t, itemColumns, "allocated_quantity")
	assert.Contains(t, itemColumns, "total_quantity")
}

func TestSelectItems_DerivesAllocated(t *testing.T) {
	r := New(nil)
	itemID := id.New()

	sql, args, err := r.selectItems().Where(squirrel.Eq{"i.id": itemID}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM stock_items i")
	assert.Contains(t, sql, "AS allocated_quantity")
	assert.Contains(t, sql, "WHERE i.id = $1")
	assert.NotContains(t, sql, "FOR UPDATE")
	assert.Equal(t, []any{itemID}, args)
}

func TestItemValues_NilAttachments(t *testing.T) {
	item := &stock.Item{ID: id.New(), Name: "cement", TotalQuantity: 10, UnitValue: types.MustMoney("4.20"), AllocatedQuantity: 3}

	data := itemValues(item)
	assert.Equal(t, []string{}, data["attachments"])
	assert.NotContains(t, data, "allocated_quantity")
	assert.Equal(t, int64(10), data["total_quantity"])
}
