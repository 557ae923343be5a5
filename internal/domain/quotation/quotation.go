// Package quotation evaluates supplier price offers.
// Everything here is pure: no storage, no clock, no context.
package quotation

import (
	"fmt"

	"opserp/internal/core/apperror"
	"opserp/internal/core/types"
)

// Quotation is one supplier's offer for the requested item.
// It has no identity of its own and is embedded in a purchase request.
type Quotation struct {
	UnitPrice     types.Money `json:"unitPrice"`
	Freight       types.Money `json:"freight"`
	Taxes         types.Money `json:"taxes"`
	Discount      types.Money `json:"discount"`
	SupplierRef   *string     `json:"supplierRef,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Link          string      `json:"link,omitempty"`
}

// Validate checks that every money field is non-negative.
func (q Quotation) Validate() error {
	fields := []struct {
		name  string
		value types.Money
	}{
		{"unitPrice", q.UnitPrice},
		{"freight", q.Freight},
		{"taxes", q.Taxes},
		{"discount", q.Discount},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return apperror.NewInvalidQuotation(fmt.Sprintf("%s must not be negative", f.name)).
				WithDetail("field", f.name)
		}
	}
	return nil
}

// EffectiveUnitCost returns unitPrice + freight + taxes - discount, never below zero.
func EffectiveUnitCost(q Quotation) (types.Money, error) {
	if err := q.Validate(); err != nil {
		return types.Zero(), err
	}
	cost := q.UnitPrice.Add(q.Freight).Add(q.Taxes).Sub(q.Discount)
	if cost.IsNegative() {
		return types.Zero(), nil
	}
	return cost, nil
}

// LineTotal returns EffectiveUnitCost(q) * quantity.
func LineTotal(q Quotation, quantity int64) (types.Money, error) {
	if quantity <= 0 {
		return types.Zero(), apperror.NewInvalidQuotation("quantity must be positive").
			WithDetail("quantity", quantity)
	}
	cost, err := EffectiveUnitCost(q)
	if err != nil {
		return types.Zero(), err
	}
	return cost.Mul(types.NewMoneyFromInt(quantity)), nil
}

// Evaluation is the computed cost of one quotation at a given quantity.
type Evaluation struct {
	Index             int         `json:"index"`
	EffectiveUnitCost types.Money `json:"effectiveUnitCost"`
	LineTotal         types.Money `json:"lineTotal"`
}

// EvaluateAll computes costs for every quotation, preserving input order.
// The result is for display to the approver; no entry is preferred over another.
func EvaluateAll(quotations []Quotation, quantity int64) ([]Evaluation, error) {
	out := make([]Evaluation, 0, len(quotations))
	for i, q := range quotations {
		total, err := LineTotal(q, quantity)
		if err != nil {
			return nil, fmt.Errorf("quotation %d: %w", i, err)
		}
		unit, _ := EffectiveUnitCost(q)
		out = append(out, Evaluation{Index: i, EffectiveUnitCost: unit, LineTotal: total})
	}
	return out, nil
}
