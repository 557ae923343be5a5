package procurement_repo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/quotation"
)

func TestListQuery_ExcludesRejectedByDefault(t *testing.T) {
	r := New(nil)

	sql, args, err := r.listQuery(procurement.ListFilter{Limit: 10}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "status <> $1")
	assert.Contains(t, sql, "ORDER BY id DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Equal(t, []any{procurement.StatusRejected}, args)
}

func TestListQuery_ExplicitStatus(t *testing.T) {
	r := New(nil)
	status := procurement.StatusRejected
	project := "obra-7"

	sql, args, err := r.listQuery(procurement.ListFilter{Status: &status, ProjectRef: &project}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "status = $1")
	assert.Contains(t, sql, "project_ref = $2")
	assert.NotContains(t, sql, "<>")
	assert.Equal(t, []any{status, project}, args)
}

func TestListQuery_IncludeRejected(t *testing.T) {
	r := New(nil)

	sql, args, err := r.listQuery(procurement.ListFilter{IncludeRejected: true}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestValues_EncodesJSONColumns(t *testing.T) {
	req := &procurement.PurchaseRequest{
		ID:       id.New(),
		ItemName: "rebar",
		Quantity: 4,
		Quotations: []quotation.Quotation{
			{UnitPrice: types.MustMoney("10.00"), Freight: types.Zero(), Taxes: types.Zero(), Discount: types.Zero()},
		},
	}

	data, err := values(req)
	require.NoError(t, err)

	raw, ok := data["quotations"].([]byte)
	require.True(t, ok)
	var decoded []quotation.Quotation
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].UnitPrice.Equal(types.MustMoney("10")))
	assert.Nil(t, data["delivery_info"])

	req.Quotations = nil
	data, err = values(req)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data["quotations"].([]byte)))
}
