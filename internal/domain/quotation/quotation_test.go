package quotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/apperror"
	"opserp/internal/core/types"
)

func q(unit, freight, taxes, discount string) Quotation {
	return Quotation{
		UnitPrice: types.MustMoney(unit),
		Freight:   types.MustMoney(freight),
		Taxes:     types.MustMoney(taxes),
		Discount:  types.MustMoney(discount),
	}
}

func TestEffectiveUnitCost(t *testing.T) {
	tests := []struct {
		name string
		in   Quotation
		want string
	}{
		{"drill", q("100", "10", "5", "0"), "115"},
		{"discount applied", q("100", "0", "0", "30.5"), "69.5"},
		{"floored at zero", q("10", "0", "0", "25"), "0"},
		{"all zero", q("0", "0", "0", "0"), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveUnitCost(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s", got)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestLineTotal_IsUnitCostTimesQuantity(t *testing.T) {
	cases := []Quotation{
		q("100", "10", "5", "0"),
		q("3.333", "0.01", "0", "1"),
		q("1", "0", "0", "5"),
	}
	for _, in := range cases {
		for _, n := range []int64{1, 5, 17} {
			unit, err := EffectiveUnitCost(in)
			require.NoError(t, err)
			total, err := LineTotal(in, n)
			require.NoError(t, err)
			assert.True(t, total.Equal(unit.Mul(types.NewMoneyFromInt(n))))
		}
	}

	total, err := LineTotal(q("100", "10", "5", "0"), 5)
	require.NoError(t, err)
	assert.Equal(t, "575", total.String())
}

func TestInvalidQuotation(t *testing.T) {
	_, err := EffectiveUnitCost(q("-1", "0", "0", "0"))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuotation))

	_, err = EffectiveUnitCost(q("1", "0", "-0.01", "0"))
	assert.True(t, apperror.IsInvalidRequest(err))

	_, err = LineTotal(q("1", "0", "0", "0"), 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuotation))

	_, err = LineTotal(q("1", "0", "0", "0"), -3)
	assert.True(t, apperror.IsInvalidRequest(err))
}

func TestEvaluateAll_KeepsInputOrder(t *testing.T) {
	evals, err := EvaluateAll([]Quotation{q("50", "0", "0", "0"), q("10", "0", "0", "0")}, 2)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, 0, evals[0].Index)
	assert.Equal(t, "100", evals[0].LineTotal.String())
	assert.Equal(t, "20", evals[1].LineTotal.String())

	_, err = EvaluateAll([]Quotation{q("1", "0", "0", "0")}, 0)
	assert.True(t, apperror.IsInvalidRequest(err))
}
